package dummydb

import (
	"sync"
	"time"

	"github.com/tchaleu/saetrack/core/sae"
	"github.com/tchaleu/saetrack/core/user"
)

var nowFunc = time.Now // mockable

type (
	DB struct {
		sae      *saeTable
		reminder *reminderState
		user     *userTable
	}

	saeTable struct {
		sync.RWMutex
		table        map[int]*sae.Sae
		attributions map[int]*sae.Attribution
		saePKCount   int
		attPKCount   int
	}

	reminderState struct {
		sync.RWMutex
		sent      map[string]time.Time
		delays    []int
		lastCheck time.Time
	}

	userTable struct {
		sync.RWMutex
		table   map[int]*user.User
		pkCount int
	}
)

func Open() (*DB, error) {
	db := &DB{
		sae: &saeTable{
			table:        make(map[int]*sae.Sae),
			attributions: make(map[int]*sae.Attribution),
		},
		reminder: &reminderState{sent: make(map[string]time.Time)},
		user:     &userTable{table: make(map[int]*user.User)},
	}
	return db, nil
}
