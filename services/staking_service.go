// services/staking_service.go
package services

import (
	"github.com/wfunc/gamebackend/models"
	"github.com/wfunc/gamebackend/persistence"
)

type StakingService struct {
	db persistence.Database
}

func NewStakingService(db persistence.Database) *StakingService {
	return &StakingService{db: db}
}

// AddRecord 写入一条质押流水
func (s *StakingService) AddRecord(walletAddress string, amount float64) (*models.StakingRecord, error) {
	if walletAddress == "" {
		return nil, ErrMissingFields
	}
	return s.db.InsertStakingRecord(walletAddress, amount)
}

// History 查询质押流水, 最新在前. 空结果不是错误.
func (s *StakingService) History(walletAddress string) ([]models.StakingRecord, error) {
	return s.db.FindStakingRecords(walletAddress)
}
