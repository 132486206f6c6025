// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/wfunc/gamebackend/models"
)

// PostgreSQL 数据库实现 (database/sql + lib/pq)
// Alternative to the GORM store, selected with database.driver: "sql".
type PostgreSQL struct {
	db *sql.DB
}

const queryTimeout = 5 * time.Second

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            wallet_address TEXT UNIQUE NOT NULL,
            username TEXT UNIQUE,
            is_staked BOOLEAN NOT NULL DEFAULT FALSE,
            kills INTEGER NOT NULL DEFAULT 0,
            score INTEGER NOT NULL DEFAULT 0,
            current_room TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS rooms (
            id SERIAL PRIMARY KEY,
            room_id TEXT UNIQUE NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS room_members (
            id SERIAL PRIMARY KEY,
            room_id TEXT NOT NULL,
            wallet_address TEXT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (room_id, wallet_address)
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS staking_history (
            id SERIAL PRIMARY KEY,
            wallet_address TEXT NOT NULL,
            amount DOUBLE PRECISION NOT NULL DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS leaderboard (
            id SERIAL PRIMARY KEY,
            wallet_address TEXT NOT NULL,
            kills INTEGER NOT NULL DEFAULT 0,
            score INTEGER NOT NULL DEFAULT 0,
            room_id TEXT NOT NULL,
            username TEXT NOT NULL DEFAULT '',
            game_time DOUBLE PRECISION NOT NULL DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_room_members_wallet ON room_members(wallet_address);
        CREATE INDEX IF NOT EXISTS idx_staking_history_wallet ON staking_history(wallet_address);
        CREATE INDEX IF NOT EXISTS idx_leaderboard_wallet ON leaderboard(wallet_address);
        CREATE INDEX IF NOT EXISTS idx_leaderboard_room ON leaderboard(room_id);
    `)

	return err
}

// pqError maps driver errors to the package sentinels. 23505 is the
// PostgreSQL unique_violation code.
func pqError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateKey
	}
	return err
}

func (p *PostgreSQL) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var username sql.NullString
	err := row.Scan(&user.WalletAddress, &username, &user.IsStaked,
		&user.Kills, &user.Score, &user.CurrentRoom)
	if err != nil {
		return nil, pqError(err)
	}
	user.Username = username.String
	return &user, nil
}

const userColumns = `wallet_address, username, is_staked, kills, score, current_room`

// GetUser 查询玩家资料
func (p *PostgreSQL) GetUser(walletAddress string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	row := p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE wallet_address = $1`, walletAddress)
	return p.scanUser(row)
}

func (p *PostgreSQL) GetUserByUsername(username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	row := p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return p.scanUser(row)
}

// UpsertUsername 创建或更新玩家资料 (UPSERT, PostgreSQL 9.5+)
func (p *PostgreSQL) UpsertUsername(walletAddress, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	row := p.db.QueryRowContext(ctx, `
        INSERT INTO users (wallet_address, username)
        VALUES ($1, $2)
        ON CONFLICT (wallet_address)
        DO UPDATE SET username = EXCLUDED.username, updated_at = CURRENT_TIMESTAMP
        RETURNING `+userColumns,
		walletAddress, username)
	return p.scanUser(row)
}

// UpsertStakedStatus 创建或更新质押状态
func (p *PostgreSQL) UpsertStakedStatus(walletAddress string, isStaked bool) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	row := p.db.QueryRowContext(ctx, `
        INSERT INTO users (wallet_address, is_staked)
        VALUES ($1, $2)
        ON CONFLICT (wallet_address)
        DO UPDATE SET is_staked = EXCLUDED.is_staked, updated_at = CURRENT_TIMESTAMP
        RETURNING `+userColumns,
		walletAddress, isStaked)
	return p.scanUser(row)
}

// UpdateUserScore 覆盖写玩家击杀数和分数
func (p *PostgreSQL) UpdateUserScore(walletAddress string, kills, score int) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	row := p.db.QueryRowContext(ctx, `
        UPDATE users SET kills = $2, score = $3, updated_at = CURRENT_TIMESTAMP
        WHERE wallet_address = $1
        RETURNING `+userColumns,
		walletAddress, kills, score)
	return p.scanUser(row)
}

// UpdateCurrentRoom 更新玩家当前房间
func (p *PostgreSQL) UpdateCurrentRoom(walletAddress, currentRoom string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	row := p.db.QueryRowContext(ctx, `
        UPDATE users SET current_room = $2, updated_at = CURRENT_TIMESTAMP
        WHERE wallet_address = $1
        RETURNING `+userColumns,
		walletAddress, currentRoom)
	return p.scanUser(row)
}

func (p *PostgreSQL) FindUsersByWallets(walletAddresses []string) ([]models.User, error) {
	if len(walletAddresses) == 0 {
		return []models.User{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT wallet_address, username FROM users
        WHERE wallet_address = ANY($1)`,
		pq.Array(walletAddresses))
	if err != nil {
		return nil, pqError(err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		var username sql.NullString
		if err := rows.Scan(&user.WalletAddress, &username); err != nil {
			return nil, err
		}
		user.Username = username.String
		users = append(users, user)
	}
	return users, rows.Err()
}

// AddRoomMember 加入房间 (set-union)
func (p *PostgreSQL) AddRoomMember(roomID, walletAddress string) (*models.Room, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO rooms (room_id) VALUES ($1)
        ON CONFLICT (room_id) DO NOTHING`, roomID); err != nil {
		return nil, pqError(err)
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO room_members (room_id, wallet_address) VALUES ($1, $2)
        ON CONFLICT (room_id, wallet_address) DO NOTHING`, roomID, walletAddress); err != nil {
		return nil, pqError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return p.GetRoom(roomID)
}

// GetRoom 查询房间及其成员
func (p *PostgreSQL) GetRoom(roomID string) (*models.Room, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM rooms WHERE room_id = $1)`, roomID).Scan(&exists)
	if err != nil {
		return nil, pqError(err)
	}
	if !exists {
		return nil, ErrRecordNotFound
	}

	rows, err := p.db.QueryContext(ctx, `
        SELECT wallet_address FROM room_members
        WHERE room_id = $1 ORDER BY id`, roomID)
	if err != nil {
		return nil, pqError(err)
	}
	defer rows.Close()

	room := models.Room{RoomID: roomID, Users: []string{}}
	for rows.Next() {
		var wallet string
		if err := rows.Scan(&wallet); err != nil {
			return nil, err
		}
		room.Users = append(room.Users, wallet)
	}
	return &room, rows.Err()
}

// FindRoomsByMember 查询玩家加入过的所有房间
func (p *PostgreSQL) FindRoomsByMember(walletAddress string) ([]models.Room, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT m.room_id, m.wallet_address
        FROM room_members m
        WHERE m.room_id IN (SELECT room_id FROM room_members WHERE wallet_address = $1)
        ORDER BY m.id`, walletAddress)
	if err != nil {
		return nil, pqError(err)
	}
	defer rows.Close()

	order := []string{}
	members := map[string][]string{}
	for rows.Next() {
		var roomID, wallet string
		if err := rows.Scan(&roomID, &wallet); err != nil {
			return nil, err
		}
		if _, seen := members[roomID]; !seen {
			order = append(order, roomID)
			members[roomID] = []string{}
		}
		members[roomID] = append(members[roomID], wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rooms := make([]models.Room, 0, len(order))
	for _, id := range order {
		rooms = append(rooms, models.Room{RoomID: id, Users: members[id]})
	}
	return rooms, nil
}

// InsertStakingRecord 写入质押流水
func (p *PostgreSQL) InsertStakingRecord(walletAddress string, amount float64) (*models.StakingRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	record := models.StakingRecord{WalletAddress: walletAddress, Amount: amount}
	err := p.db.QueryRowContext(ctx, `
        INSERT INTO staking_history (wallet_address, amount)
        VALUES ($1, $2) RETURNING created_at`,
		walletAddress, amount).Scan(&record.Timestamp)
	if err != nil {
		return nil, pqError(err)
	}
	return &record, nil
}

// FindStakingRecords 查询质押流水, 最新在前
func (p *PostgreSQL) FindStakingRecords(walletAddress string) ([]models.StakingRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT wallet_address, amount, created_at FROM staking_history
        WHERE wallet_address = $1 ORDER BY created_at DESC, id DESC`, walletAddress)
	if err != nil {
		return nil, pqError(err)
	}
	defer rows.Close()

	records := []models.StakingRecord{}
	for rows.Next() {
		var r models.StakingRecord
		if err := rows.Scan(&r.WalletAddress, &r.Amount, &r.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// InsertLeaderboardEntry 写入战绩
func (p *PostgreSQL) InsertLeaderboardEntry(entry *models.LeaderboardEntry) (*models.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	out := *entry
	err := p.db.QueryRowContext(ctx, `
        INSERT INTO leaderboard (wallet_address, kills, score, room_id, username, game_time)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		entry.WalletAddress, entry.Kills, entry.Score,
		entry.RoomID, entry.Username, entry.GameTime).Scan(&out.CreatedAt)
	if err != nil {
		return nil, pqError(err)
	}
	return &out, nil
}

func (p *PostgreSQL) FindLeaderboardByWallet(walletAddress string) ([]models.LeaderboardEntry, error) {
	return p.findLeaderboard(`wallet_address = $1`, walletAddress)
}

func (p *PostgreSQL) FindLeaderboardByRoom(roomID string) ([]models.LeaderboardEntry, error) {
	return p.findLeaderboard(`room_id = $1`, roomID)
}

func (p *PostgreSQL) findLeaderboard(cond, arg string) ([]models.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT wallet_address, kills, score, room_id, username, game_time, created_at
        FROM leaderboard WHERE `+cond+` ORDER BY id`, arg)
	if err != nil {
		return nil, pqError(err)
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.WalletAddress, &e.Kills, &e.Score,
			&e.RoomID, &e.Username, &e.GameTime, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Ping 检查数据库连接
func (p *PostgreSQL) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	return p.db.PingContext(ctx)
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
