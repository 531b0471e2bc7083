package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	handler "github.com/vote2earn/api/internal/adapters/handler/http"
	repo "github.com/vote2earn/api/internal/adapters/repository/postgres"
	"github.com/vote2earn/api/internal/core/domain"
	"github.com/vote2earn/api/internal/core/services"
)

const testJWTSecret = "test-secret"

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Client      *http.Client
	DBContainer testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dirPath, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	require.NoError(t, applyMigrations(db))

	pollRepo := repo.NewPollRepository(db)
	voteRepo := repo.NewVoteRepository(db)
	userRepo := repo.NewUserRepository(db)

	pollSvc := services.NewPollService(pollRepo, voteRepo)
	voteSvc := services.NewVoteService(voteRepo, zap.NewNop())
	userSvc := services.NewUserService(userRepo)
	authSvc := services.NewAuthService(userRepo, []byte(testJWTSecret), 15*time.Minute)

	router := handler.NewHandler(
		handler.NewAuthHandler(authSvc),
		handler.NewPollHandler(pollSvc),
		handler.NewVoteHandler(voteSvc),
		handler.NewUserHandler(userSvc),
		[]byte(testJWTSecret),
	)

	server := httptest.NewServer(router)

	return &TestApp{
		DB:          db,
		Server:      server,
		Client:      server.Client(),
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

// createUser inserts a user row directly and returns its id plus a
// signed access token, skipping the register endpoint so tests can
// pick roles and starting balances freely.
func (app *TestApp) createUser(t *testing.T, role domain.Role, balance string) (uuid.UUID, string) {
	t.Helper()

	userID := uuid.New()
	username := fmt.Sprintf("user-%s", userID)
	email := fmt.Sprintf("%s@example.com", username)
	_, err := app.DB.Exec(
		"INSERT INTO users (id, username, email, password, role, balance) VALUES ($1, $2, $3, $4, $5, $6)",
		userID, username, email, "not-a-real-hash", role, balance,
	)
	require.NoError(t, err)

	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	return userID, signed
}

// do issues a JSON request against the test server, attaching the
// bearer token when one is given.
func (app *TestApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, app.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (app *TestApp) createPoll(t *testing.T, token string, reward string, options ...string) domain.Poll {
	t.Helper()

	resp := app.do(t, http.MethodPost, "/api/polls", token, map[string]any{
		"question": "Which feature should we build next?",
		"budget":   "100.00",
		"reward":   reward,
		"ends_at":  time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"options":  options,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return decodeBody[domain.Poll](t, resp)
}

func (app *TestApp) userBalance(t *testing.T, userID uuid.UUID) decimal.Decimal {
	t.Helper()
	var balance decimal.Decimal
	err := app.DB.QueryRow("SELECT balance FROM users WHERE id = $1", userID).Scan(&balance)
	require.NoError(t, err)
	return balance
}

func (app *TestApp) optionVoteCount(t *testing.T, optionID uuid.UUID) int64 {
	t.Helper()
	var count int64
	err := app.DB.QueryRow("SELECT vote_count FROM poll_options WHERE id = $1", optionID).Scan(&count)
	require.NoError(t, err)
	return count
}
