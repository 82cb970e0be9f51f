package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/sae"
)

type saeRepository struct {
	db    *saeTable
	users *userTable
}

var _ sae.Repository = (*saeRepository)(nil) // interface compliance check

func NewSaeRepository(db *DB) sae.Repository {
	return &saeRepository{db: db.sae, users: db.user}
}

func (repo *saeRepository) queryAttributions() []sae.Attribution {
	atts := make([]sae.Attribution, 0, len(repo.db.attributions))
	for _, att := range repo.db.attributions {
		atts = append(atts, *att)
	}
	sort.Slice(atts, func(i, j int) bool { return atts[i].ID < atts[j].ID })
	return atts
}

func (repo *saeRepository) CreateSae(ctx context.Context, s sae.Sae) (sae.Sae, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.saePKCount++
	s.ID = repo.db.saePKCount
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *saeRepository) GetSae(ctx context.Context, id int) (sae.Sae, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return sae.Sae{}, sae.ErrNotFound
}

func (repo *saeRepository) QuerySaes(ctx context.Context, filter sae.QueryFilter, _ []core.DBOrdering) ([]sae.Sae, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	saes := make([]sae.Sae, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(s.Title), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(s.Description), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.CreatedBy != 0 && s.CreatedBy != filter.CreatedBy {
			continue
		}
		saes = append(saes, *s)
	}
	sort.Slice(saes, func(i, j int) bool { return saes[i].ID < saes[j].ID })
	return saes, nil
}

func (repo *saeRepository) DeleteSae(ctx context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, id)
	// cascade
	for attID, att := range repo.db.attributions {
		if att.SaeID == id {
			delete(repo.db.attributions, attID)
		}
	}
	return nil
}

func (repo *saeRepository) FindAttributionsBySae(ctx context.Context, saeID int) ([]sae.Attribution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var atts []sae.Attribution
	for _, att := range repo.queryAttributions() {
		if att.SaeID == saeID {
			atts = append(atts, att)
		}
	}
	return atts, nil
}

func (repo *saeRepository) GetAttribution(ctx context.Context, saeID, studentID int) (sae.Attribution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, att := range repo.db.attributions {
		if att.SaeID == saeID && att.StudentID == studentID {
			return *att, nil
		}
	}
	return sae.Attribution{}, sae.ErrAttributionNotFound
}

func (repo *saeRepository) CreateAttribution(ctx context.Context, att sae.Attribution) (sae.Attribution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.attPKCount++
	att.ID = repo.db.attPKCount
	att.DueDate = core.Day(att.DueDate)
	repo.db.attributions[att.ID] = &att
	return att, nil
}

func (repo *saeRepository) DeleteAttribution(ctx context.Context, saeID, studentID int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for attID, att := range repo.db.attributions {
		if att.SaeID == saeID && att.StudentID == studentID {
			delete(repo.db.attributions, attID)
		}
	}
	return nil
}

func (repo *saeRepository) UpdateDueDate(ctx context.Context, saeID, supervisorID int, due time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, att := range repo.db.attributions {
		if att.SaeID == saeID && att.SupervisorID == supervisorID {
			att.DueDate = core.Day(due)
		}
	}
	return nil
}

func (repo *saeRepository) CountAttributions(ctx context.Context, saeID int) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, att := range repo.db.attributions {
		if att.SaeID == saeID {
			count++
		}
	}
	return count, nil
}

func (repo *saeRepository) FindAttributionsDueIn(ctx context.Context, days int) ([]sae.DueAttribution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	target := core.Day(nowFunc()).AddDate(0, 0, days)

	var due []sae.DueAttribution
	for _, att := range repo.queryAttributions() {
		if !core.Day(att.DueDate).Equal(target) {
			continue
		}
		s, ok := repo.db.table[att.SaeID]
		if !ok {
			continue
		}
		row := sae.DueAttribution{
			SaeID:     att.SaeID,
			StudentID: att.StudentID,
			SaeTitle:  s.Title,
			DueDate:   att.DueDate,
		}
		if stu, ok := repo.users.table[att.StudentID]; ok {
			row.StudentName = stu.Name
			row.StudentEmail = stu.Email
		}
		if sup, ok := repo.users.table[att.SupervisorID]; ok {
			row.SupervisorName = sup.Name
		}
		due = append(due, row)
	}
	return due, nil
}

// SetNow overrides the clock used to resolve "due in N days"; for tests.
func SetNow(now func() time.Time) { nowFunc = now }
