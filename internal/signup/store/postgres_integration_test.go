//go:build integration

package store_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"waitlist/internal/signup/models"
	"waitlist/internal/signup/store"
	"waitlist/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())

	ddl, err := os.ReadFile("../../../migrations/0001_create_signups.sql")
	s.Require().NoError(err)
	s.Require().NoError(s.postgres.Apply(context.Background(), string(ddl)))

	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "signups"))
}

func (s *PostgresStoreSuite) newRecord(email string) *models.SignupRecord {
	return &models.SignupRecord{
		ID:        fmt.Sprintf("%s-%d", email, time.Now().UnixNano()),
		Email:     email,
		Zip:       "94105",
		Role:      models.RoleVoter,
		Source:    models.DefaultSource,
		CreatedAt: time.Now().UTC(),
	}
}

func (s *PostgresStoreSuite) TestInsertAndList() {
	ctx := context.Background()

	s.Require().NoError(s.store.Insert(ctx, s.newRecord("a@b.com")))
	s.Require().NoError(s.store.Insert(ctx, s.newRecord("c@d.com")))

	records, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(records, 2)

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *PostgresStoreSuite) TestUniqueViolationMapsToDuplicateEmail() {
	ctx := context.Background()

	s.Require().NoError(s.store.Insert(ctx, s.newRecord("a@b.com")))

	err := s.store.Insert(ctx, s.newRecord("a@b.com"))
	s.Require().ErrorIs(err, store.ErrDuplicateEmail)

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

// TestConcurrentInsertSameEmail verifies the unique index resolves the race:
// exactly one of N concurrent inserts succeeds.
func (s *PostgresStoreSuite) TestConcurrentInsertSameEmail() {
	ctx := context.Background()
	const goroutines = 10

	var wg sync.WaitGroup
	var successes, duplicates atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := s.store.Insert(ctx, s.newRecord("race@b.com")); {
			case err == nil:
				successes.Add(1)
			case err == store.ErrDuplicateEmail:
				duplicates.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), duplicates.Load())
}

func (s *PostgresStoreSuite) TestExistsByEmail() {
	ctx := context.Background()

	exists, err := s.store.ExistsByEmail(ctx, "a@b.com")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.store.Insert(ctx, s.newRecord("a@b.com")))

	exists, err = s.store.ExistsByEmail(ctx, "a@b.com")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *PostgresStoreSuite) TestHealth() {
	s.Require().NoError(s.store.Health(context.Background()))
}
