package inmemdb

import (
	"sync"

	"github.com/trezcool/alama/core/result"
	"github.com/trezcool/alama/core/user"
)

type (
	// DB is a map-backed database for tests and local runs without postgres.
	DB struct {
		user   *userTable
		result *resultTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	resultTable struct {
		table map[string]*result.Result
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		result: &resultTable{table: make(map[string]*result.Result)},
	}
}
