package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/alama/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

// query returns every User, most recent first.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email string, excludedIDs ...string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sort.Strings(excludedIDs)
	for _, usr := range repo.db.table {
		if isExcluded(usr.ID, excludedIDs) {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = uuid.New().String()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID == "" && filter.UsernameOrEmail == "" {
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.table {
		if filter.ID != "" && usr.ID != filter.ID {
			continue
		}
		if filter.UsernameOrEmail != "" && !(usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail) {
			continue
		}
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if filter.Search != "" &&
			!(strings.Contains(strings.ToLower(usr.Name), filter.Search) ||
				strings.Contains(usr.Username, filter.Search) ||
				strings.Contains(usr.Email, filter.Search)) {
			continue
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			continue
		}
		if len(filter.Roles) > 0 && !hasAnyRole(usr.Roles, filter.Roles) {
			continue
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func isExcluded(id string, sortedIDs []string) bool {
	idx := sort.SearchStrings(sortedIDs, id)
	return idx < len(sortedIDs) && sortedIDs[idx] == id
}

// hasAnyRole reports whether any of roles starts with any of wanted.
func hasAnyRole(roles, wanted []string) bool {
	for _, r := range roles {
		for _, w := range wanted {
			if strings.HasPrefix(r, w) {
				return true
			}
		}
	}
	return false
}
