package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/gamebackend/logger"
	"github.com/wfunc/gamebackend/models"
	"github.com/wfunc/gamebackend/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered with the
// rpc package by the caller before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// ProfileService exposes read-only profile lookups to trusted game
// servers over net/rpc, so in-match checks (is this wallet staked?)
// skip the HTTP surface.
type ProfileService struct {
	userService *services.UserService
}

// NewProfileService creates a new ProfileService.
func NewProfileService(us *services.UserService) *ProfileService {
	return &ProfileService{userService: us}
}

type GetUserArgs struct {
	WalletAddress string
}

type GetUserReply struct {
	User *models.User
}

// GetUser fetches a player profile by wallet address.
// It follows the net/rpc signature: exported method, exported
// arguments, second argument is a pointer, return type is error.
func (ps *ProfileService) GetUser(args *GetUserArgs, reply *GetUserReply) error {
	user, err := ps.userService.GetUser(args.WalletAddress)
	if err != nil {
		return err
	}
	reply.User = user
	return nil
}

type StakeStatusReply struct {
	IsStaked bool
}

// GetStakeStatus reports whether the wallet currently has a stake.
func (ps *ProfileService) GetStakeStatus(args *GetUserArgs, reply *StakeStatusReply) error {
	status, err := ps.userService.GetStakeStatus(args.WalletAddress)
	if err != nil {
		return err
	}
	reply.IsStaked = status.IsStaked
	return nil
}
