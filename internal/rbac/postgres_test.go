package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"staffdesk.org/internal/auth"
)

func TestResolvePermissionsMergesRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select exists").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("select rp.resource, rp.action").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"resource", "action"}).
			AddRow("leaves", "read").
			AddRow("projects", "read").
			AddRow("projects", "read").
			AddRow("projects", "update"))

	resolver := NewPostgres(db)
	grants, err := resolver.ResolvePermissions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ResolvePermissions: %v", err)
	}
	if len(grants) != 2 {
		t.Fatalf("expected 2 grants, got %d: %v", len(grants), grants)
	}
	var projects *Grant
	for i := range grants {
		if grants[i].Resource == "projects" {
			projects = &grants[i]
		}
	}
	if projects == nil {
		t.Fatalf("projects grant missing: %v", grants)
	}
	if len(projects.Actions) != 2 {
		t.Fatalf("expected deduplicated actions, got %v", projects.Actions)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResolvePermissionsUnknownPrincipal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select exists").WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	resolver := NewPostgres(db)
	_, err = resolver.ResolvePermissions(context.Background(), "ghost")
	if !errors.Is(err, auth.ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestResolvePermissionsNoRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select exists").WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("select rp.resource, rp.action").WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"resource", "action"}))

	resolver := NewPostgres(db)
	grants, err := resolver.ResolvePermissions(context.Background(), "u2")
	if err != nil {
		t.Fatalf("ResolvePermissions: %v", err)
	}
	if len(grants) != 0 {
		t.Fatalf("expected empty grants, got %v", grants)
	}
}
