package conversations

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func TestDefaultProjectResolvedOnce(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	projectID := "22222222-2222-2222-2222-222222222222"

	mock.ExpectQuery("SELECT id FROM projects").
		WithArgs(DefaultProjectName).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(projectID))

	for i := 0; i < 2; i++ {
		mock.ExpectQuery("INSERT INTO conversations").
			WithArgs(pgxmock.AnyArg(), projectID, "").
			WillReturnRows(pgxmock.NewRows([]string{"id", "project_id", "visitor_session_id", "created_at", "updated_at"}).
				AddRow("conv-id", projectID, "", now, now))
	}

	repo := NewPostgresRepository(mock)
	ctx := context.Background()

	// Two creates, but only one project lookup.
	if _, err := repo.Create(ctx, ""); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := repo.Create(ctx, ""); err != nil {
		t.Fatalf("second create: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
