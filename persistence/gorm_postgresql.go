// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wfunc/gamebackend/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewGormDatabase(db)
}

// NewGormDatabase wraps an already opened gorm handle. Tests use this
// with an in-memory SQLite database.
func NewGormDatabase(db *gorm.DB) (*GormPostgreSQL, error) {
	if err := autoMigrate(db); err != nil {
		return nil, err
	}
	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormUser{},
		&models.GormRoom{},
		&models.GormRoomMember{},
		&models.GormStakingRecord{},
		&models.GormLeaderboardEntry{},
	)
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

// GetUser 查询玩家资料
func (p *GormPostgreSQL) GetUser(walletAddress string) (*models.User, error) {
	var user models.GormUser
	if err := p.db.Where("wallet_address = ?", walletAddress).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return user.ToView(), nil
}

func (p *GormPostgreSQL) GetUserByUsername(username string) (*models.User, error) {
	var user models.GormUser
	if err := p.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return user.ToView(), nil
}

// UpsertUsername 创建或更新玩家资料
// Insert path gets the schema defaults (isStaked=false, kills=0,
// score=0, currentRoom=''); update path only touches the username.
// A username held by another wallet violates the unique index and
// surfaces as ErrDuplicateKey.
func (p *GormPostgreSQL) UpsertUsername(walletAddress, username string) (*models.User, error) {
	user := models.GormUser{
		WalletAddress: walletAddress,
		Username:      &username,
	}
	err := p.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"username":   username,
			"updated_at": time.Now(),
		}),
	}).Create(&user).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return p.GetUser(walletAddress)
}

// UpsertStakedStatus 创建或更新质押状态
func (p *GormPostgreSQL) UpsertStakedStatus(walletAddress string, isStaked bool) (*models.User, error) {
	user := models.GormUser{
		WalletAddress: walletAddress,
		IsStaked:      isStaked,
	}
	err := p.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_staked":  isStaked,
			"updated_at": time.Now(),
		}),
	}).Create(&user).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return p.GetUser(walletAddress)
}

// UpdateUserScore 覆盖写玩家击杀数和分数
func (p *GormPostgreSQL) UpdateUserScore(walletAddress string, kills, score int) (*models.User, error) {
	result := p.db.Model(&models.GormUser{}).
		Where("wallet_address = ?", walletAddress).
		Updates(map[string]interface{}{"kills": kills, "score": score})
	if result.Error != nil {
		return nil, translateErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return p.GetUser(walletAddress)
}

// UpdateCurrentRoom 更新玩家当前房间
func (p *GormPostgreSQL) UpdateCurrentRoom(walletAddress, currentRoom string) (*models.User, error) {
	result := p.db.Model(&models.GormUser{}).
		Where("wallet_address = ?", walletAddress).
		Update("current_room", currentRoom)
	if result.Error != nil {
		return nil, translateErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return p.GetUser(walletAddress)
}

func (p *GormPostgreSQL) FindUsersByWallets(walletAddresses []string) ([]models.User, error) {
	if len(walletAddresses) == 0 {
		return []models.User{}, nil
	}
	var rows []models.GormUser
	err := p.db.Select("wallet_address", "username").
		Where("wallet_address IN ?", walletAddresses).
		Find(&rows).Error
	if err != nil {
		return nil, translateErr(err)
	}
	users := make([]models.User, 0, len(rows))
	for i := range rows {
		users = append(users, *rows[i].ToView())
	}
	return users, nil
}

// AddRoomMember 加入房间 (set-union)
// Room row and member row are both conditional inserts, so joining an
// existing room or rejoining the same room never errors and never
// duplicates a member.
func (p *GormPostgreSQL) AddRoomMember(roomID, walletAddress string) (*models.Room, error) {
	err := p.db.Transaction(func(tx *gorm.DB) error {
		room := models.GormRoom{RoomID: roomID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			DoNothing: true,
		}).Create(&room).Error; err != nil {
			return err
		}

		member := models.GormRoomMember{RoomID: roomID, WalletAddress: walletAddress}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "wallet_address"}},
			DoNothing: true,
		}).Create(&member).Error
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return p.GetRoom(roomID)
}

// GetRoom 查询房间及其成员
func (p *GormPostgreSQL) GetRoom(roomID string) (*models.Room, error) {
	var room models.GormRoom
	if err := p.db.Where("room_id = ?", roomID).First(&room).Error; err != nil {
		return nil, translateErr(err)
	}
	members, err := p.roomMembers([]string{roomID})
	if err != nil {
		return nil, err
	}
	return &models.Room{RoomID: roomID, Users: members[roomID]}, nil
}

// FindRoomsByMember 查询玩家加入过的所有房间
func (p *GormPostgreSQL) FindRoomsByMember(walletAddress string) ([]models.Room, error) {
	var roomIDs []string
	err := p.db.Model(&models.GormRoomMember{}).
		Where("wallet_address = ?", walletAddress).
		Order("id").
		Pluck("room_id", &roomIDs).Error
	if err != nil {
		return nil, translateErr(err)
	}
	members, err := p.roomMembers(roomIDs)
	if err != nil {
		return nil, err
	}
	rooms := make([]models.Room, 0, len(roomIDs))
	for _, id := range roomIDs {
		rooms = append(rooms, models.Room{RoomID: id, Users: members[id]})
	}
	return rooms, nil
}

// roomMembers loads the member lists for a set of rooms in one query,
// grouped by room, in join order.
func (p *GormPostgreSQL) roomMembers(roomIDs []string) (map[string][]string, error) {
	members := make(map[string][]string, len(roomIDs))
	for _, id := range roomIDs {
		members[id] = []string{}
	}
	if len(roomIDs) == 0 {
		return members, nil
	}
	var rows []models.GormRoomMember
	err := p.db.Where("room_id IN ?", roomIDs).Order("id").Find(&rows).Error
	if err != nil {
		return nil, translateErr(err)
	}
	for _, row := range rows {
		members[row.RoomID] = append(members[row.RoomID], row.WalletAddress)
	}
	return members, nil
}

// InsertStakingRecord 写入质押流水
func (p *GormPostgreSQL) InsertStakingRecord(walletAddress string, amount float64) (*models.StakingRecord, error) {
	record := models.GormStakingRecord{
		WalletAddress: walletAddress,
		Amount:        amount,
	}
	if err := p.db.Create(&record).Error; err != nil {
		return nil, translateErr(err)
	}
	return record.ToView(), nil
}

// FindStakingRecords 查询质押流水, 最新在前
func (p *GormPostgreSQL) FindStakingRecords(walletAddress string) ([]models.StakingRecord, error) {
	var rows []models.GormStakingRecord
	err := p.db.Where("wallet_address = ?", walletAddress).
		Order("created_at desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, translateErr(err)
	}
	records := make([]models.StakingRecord, 0, len(rows))
	for i := range rows {
		records = append(records, *rows[i].ToView())
	}
	return records, nil
}

// InsertLeaderboardEntry 写入战绩
func (p *GormPostgreSQL) InsertLeaderboardEntry(entry *models.LeaderboardEntry) (*models.LeaderboardEntry, error) {
	row := models.GormLeaderboardEntry{
		WalletAddress: entry.WalletAddress,
		Kills:         entry.Kills,
		Score:         entry.Score,
		RoomID:        entry.RoomID,
		Username:      entry.Username,
		GameTime:      entry.GameTime,
	}
	if err := p.db.Create(&row).Error; err != nil {
		return nil, translateErr(err)
	}
	return row.ToView(), nil
}

func (p *GormPostgreSQL) FindLeaderboardByWallet(walletAddress string) ([]models.LeaderboardEntry, error) {
	return p.findLeaderboard("wallet_address = ?", walletAddress)
}

func (p *GormPostgreSQL) FindLeaderboardByRoom(roomID string) ([]models.LeaderboardEntry, error) {
	return p.findLeaderboard("room_id = ?", roomID)
}

func (p *GormPostgreSQL) findLeaderboard(cond string, arg string) ([]models.LeaderboardEntry, error) {
	var rows []models.GormLeaderboardEntry
	if err := p.db.Where(cond, arg).Find(&rows).Error; err != nil {
		return nil, translateErr(err)
	}
	entries := make([]models.LeaderboardEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, *rows[i].ToView())
	}
	return entries, nil
}

// Ping 检查数据库连接
func (p *GormPostgreSQL) Ping() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
