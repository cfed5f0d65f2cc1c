package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/viper"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/vvv850/infra-mapper/internal/exception"
	"github.com/vvv850/infra-mapper/internal/topology"
)

//go:generate mockgen -destination=../mock/store/mock_store.go -package=mock_store . Repo

// ServerSnapshot is one server's slice of the most recent fleet, stored
// so diagrams can be re-rendered without re-probing. Position preserves
// configuration order. Rows are replaced wholesale on every save; this
// is a cache of the latest run, not a history.
type ServerSnapshot struct {
	Host        string `gorm:"primaryKey"`
	Position    int
	Status      string
	ErrorKind   string
	ErrorReason string
	Warnings    int
	Stacks      datatypes.JSON
	Standalone  datatypes.JSON
	UpdatedAt   time.Time
}

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

// Repo interface representing access to stored fleet snapshots
type Repo interface {
	SaveFleet(fleet *topology.Fleet) error
	LoadFleet() (*topology.Fleet, error)
	Clear() error
}

// SqliteRepo is our snapshot repo implementation for sqlite
type SqliteRepo struct {
	db *gorm.DB
}

// NewSqliteRepo returns a snapshot repo backed by the given connection
func NewSqliteRepo(db *gorm.DB) *SqliteRepo {
	return &SqliteRepo{db: db}
}

// NewSqliteDatabase opens the configured database file and returns a
// migrated snapshot repo
func NewSqliteDatabase() (*SqliteRepo, error) {
	filepath := viper.Get("database-file")

	dbFile, ok := filepath.(string)

	if !ok {
		return nil, errors.New("failed to find database file path config")
	}

	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})

	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&ServerSnapshot{}); err != nil {
		return nil, err
	}

	return &SqliteRepo{db: db}, nil
}

// SaveFleet replaces the stored snapshot with the given fleet
func (r *SqliteRepo) SaveFleet(fleet *topology.Fleet) error {
	rows := make([]ServerSnapshot, 0, len(fleet.Servers))

	for i, result := range fleet.Servers {
		row, err := toSnapshot(i, result)

		if err != nil {
			return err
		}

		rows = append(rows, row)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ServerSnapshot{}).Error; err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}

		return tx.Create(&rows).Error
	})
}

// LoadFleet reconstructs the last saved fleet in its original order.
// Returns ErrRecordNotFound when no snapshot has been saved yet.
func (r *SqliteRepo) LoadFleet() (*topology.Fleet, error) {
	rows := []ServerSnapshot{}

	if result := r.db.Order("position asc").Find(&rows); result.Error != nil {
		return nil, result.Error
	}

	if len(rows) == 0 {
		return nil, exception.ErrRecordNotFound
	}

	servers := make([]topology.ServerResult, 0, len(rows))

	for _, row := range rows {
		result, err := fromSnapshot(row)

		if err != nil {
			return nil, err
		}

		servers = append(servers, result)
	}

	return &topology.Fleet{Servers: servers}, nil
}

// Clear removes any stored snapshot
func (r *SqliteRepo) Clear() error {
	return r.db.Where("1 = 1").Delete(&ServerSnapshot{}).Error
}

func toSnapshot(position int, result topology.ServerResult) (ServerSnapshot, error) {
	stacks, err := json.Marshal(result.Stacks)

	if err != nil {
		return ServerSnapshot{}, err
	}

	standalone, err := json.Marshal(result.Standalone)

	if err != nil {
		return ServerSnapshot{}, err
	}

	row := ServerSnapshot{
		Host:       result.Host,
		Position:   position,
		Status:     statusSuccess,
		Warnings:   result.Warnings,
		Stacks:     datatypes.JSON(stacks),
		Standalone: datatypes.JSON(standalone),
		UpdatedAt:  time.Now(),
	}

	if result.Failed() {
		row.Status = statusFailed
		row.ErrorKind = string(result.Err.Kind)
		row.ErrorReason = result.Err.Reason
	}

	return row, nil
}

func fromSnapshot(row ServerSnapshot) (topology.ServerResult, error) {
	result := topology.ServerResult{
		Host:     row.Host,
		Warnings: row.Warnings,
	}

	if row.Status == statusFailed {
		result.Err = exception.NewDiscoveryError(
			exception.ErrorKind(row.ErrorKind),
			row.Host,
			row.ErrorReason,
		)

		return result, nil
	}

	if err := json.Unmarshal(row.Stacks, &result.Stacks); err != nil {
		return topology.ServerResult{}, err
	}

	if err := json.Unmarshal(row.Standalone, &result.Standalone); err != nil {
		return topology.ServerResult{}, err
	}

	return result, nil
}
