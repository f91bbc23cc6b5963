package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/hullbook/internal/analytics"
	"github.com/smallbiznis/hullbook/internal/booking"
	"github.com/smallbiznis/hullbook/internal/clock"
	"github.com/smallbiznis/hullbook/internal/completion"
	"github.com/smallbiznis/hullbook/internal/config"
	"github.com/smallbiznis/hullbook/internal/integration"
	"github.com/smallbiznis/hullbook/internal/invoicing"
	"github.com/smallbiznis/hullbook/internal/mapping"
	"github.com/smallbiznis/hullbook/internal/migration"
	"github.com/smallbiznis/hullbook/internal/notification"
	"github.com/smallbiznis/hullbook/internal/observability"
	"github.com/smallbiznis/hullbook/internal/providers"
	"github.com/smallbiznis/hullbook/internal/ratelimit"
	"github.com/smallbiznis/hullbook/internal/server"
	"github.com/smallbiznis/hullbook/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type testEnv struct {
	app     *fx.App
	db      *gorm.DB
	genID   *snowflake.Node
	baseURL string
	httpSrv *httptest.Server
}

var env *testEnv

// The suite runs against a real postgres; set DATABASE_TYPE=postgres and the
// DATABASE_* connection variables to enable it.
func TestMain(m *testing.M) {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("DATABASE_TYPE")), "postgres") {
		fmt.Fprintln(os.Stderr, "skipping e2e: DATABASE_TYPE is not postgres")
		os.Exit(0)
	}

	gin.SetMode(gin.TestMode)
	setDefaultEnv()

	var err error
	env, err = startEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start test environment:", err)
		os.Exit(1)
	}

	code := m.Run()
	env.shutdown()
	os.Exit(code)
}

func TestE2E_HealthCheck(t *testing.T) {
	resp, err := http.Get(env.baseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestE2E_OwnerHeaderRequired(t *testing.T) {
	resp, err := http.Get(env.baseURL + "/api/bookings")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestE2E_IntegrationSettingsRoundTrip(t *testing.T) {
	resetDatabase(t, env.db)
	owner := env.genID.Generate()

	status, body := doJSON(t, http.MethodPatch, "/api/integrations", owner, map[string]any{
		"square_access_token": "sq-token",
		"square_location_id":  "LOC-1",
		"google_calendar_id":  "boats@example.com",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = doJSON(t, http.MethodGet, "/api/integrations", owner, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	var got struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, true, got.Data["square_connected"])
	assert.Equal(t, "LOC-1", got.Data["square_location_id"])
	assert.Equal(t, "boats@example.com", got.Data["google_calendar_id"])
	assert.NotContains(t, string(body), "sq-token")
}

func TestE2E_CompletionMappingAndRevenue(t *testing.T) {
	resetDatabase(t, env.db)
	owner := env.genID.Generate()
	bookingID := seedBooking(t, owner, "Sea Breeze - Hull clean")
	seedSquareInvoice(t, owner, "INV-42", "180.00")

	status, body := doJSON(t, http.MethodPost, "/api/completions", owner, map[string]any{
		"booking_id": bookingID.String(),
		"status":     "yes",
		"notes":      "barnacles on the keel",
		"extra_work": []map[string]string{{"title": "Wax", "amount": "30"}},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"status":"yes"`)

	status, body = doJSON(t, http.MethodPost, "/api/mappings", owner, map[string]any{
		"booking_id":          bookingID.String(),
		"external_invoice_id": "INV-42",
		"family":              "square",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = doJSON(t, http.MethodGet, "/api/analytics/summary", owner, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	var summary struct {
		Data struct {
			TotalCompletedBookings int    `json:"total_completed_bookings"`
			TotalRevenue           string `json:"total_revenue"`
			DistinctCustomers      int    `json:"distinct_customers"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, 1, summary.Data.TotalCompletedBookings)
	assert.Equal(t, "180.00", summary.Data.TotalRevenue)
	assert.Equal(t, 1, summary.Data.DistinctCustomers)

	// Another owner sees none of it.
	status, body = doJSON(t, http.MethodGet, "/api/mappings", env.genID.Generate(), nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.NotContains(t, string(body), "INV-42")
}

func TestE2E_LinkUnknownBooking(t *testing.T) {
	resetDatabase(t, env.db)
	owner := env.genID.Generate()

	status, body := doJSON(t, http.MethodPost, "/api/mappings", owner, map[string]any{
		"booking_id":          env.genID.Generate().String(),
		"external_invoice_id": "INV-1",
		"family":              "square",
	})
	assert.Equal(t, http.StatusNotFound, status, string(body))
}

func TestE2E_RegisterPushDeviceIsIdempotent(t *testing.T) {
	resetDatabase(t, env.db)
	owner := env.genID.Generate()

	for i := 0; i < 2; i++ {
		status, body := doJSON(t, http.MethodPost, "/api/push/register", owner, map[string]any{
			"token":    "device-abc",
			"platform": "ios",
		})
		require.Equal(t, http.StatusCreated, status, string(body))
	}

	var count int64
	require.NoError(t, env.db.Raw(`SELECT COUNT(*) FROM push_tokens WHERE owner_id = ?`, owner).Scan(&count).Error)
	assert.EqualValues(t, 1, count)
}

func startEnv() (*testEnv, error) {
	var (
		engine *gin.Engine
		dbConn *gorm.DB
		genID  *snowflake.Node
	)

	app := fx.New(
		fx.NopLogger,
		config.Module,
		observability.Module,
		db.Module,
		clock.Module,
		migration.Module,
		providers.Module,
		ratelimit.Module,
		integration.Module,
		booking.Module,
		completion.Module,
		mapping.Module,
		invoicing.Module,
		analytics.Module,
		notification.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(9)
			if err != nil {
				panic(err)
			}
			return node
		}),
		fx.Provide(server.NewEngine),
		fx.Invoke(server.NewServer),
		fx.Populate(&engine, &dbConn, &genID),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, err
	}

	httpSrv := httptest.NewServer(engine)
	return &testEnv{
		app:     app,
		db:      dbConn,
		genID:   genID,
		baseURL: httpSrv.URL,
		httpSrv: httpSrv,
	}, nil
}

func (e *testEnv) shutdown() {
	if e == nil {
		return
	}
	if e.httpSrv != nil {
		e.httpSrv.Close()
	}
	if e.app != nil {
		_ = e.app.Stop(context.Background())
	}
}

func setDefaultEnv() {
	setEnvIfEmpty("ENVIRONMENT", "test")
	setEnvIfEmpty("LOG_LEVEL", "error")
	setEnvIfEmpty("DATABASE_RUN_MIGRATIONS", "true")
	setEnvIfEmpty("DAILY_DIGEST_ENABLED", "false")
}

func setEnvIfEmpty(key, value string) {
	if strings.TrimSpace(os.Getenv(key)) != "" {
		return
	}
	_ = os.Setenv(key, value)
}

func resetDatabase(t *testing.T, dbConn *gorm.DB) {
	t.Helper()
	require.NoError(t, dbConn.Exec(`TRUNCATE TABLE
		push_tokens,
		event_invoice_mappings,
		squarespace_orders,
		square_invoices,
		completion_records,
		bookings,
		integration_settings
		RESTART IDENTITY CASCADE`).Error)
}

func seedBooking(t *testing.T, owner snowflake.ID, title string) snowflake.ID {
	t.Helper()
	id := env.genID.Generate()
	start := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, env.db.Exec(
		`INSERT INTO bookings (id, owner_id, external_id, title, start_at, end_at, synced_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, owner, "evt-"+id.String(), title, start, start.Add(time.Hour), time.Now().UTC(),
	).Error)
	return id
}

func seedSquareInvoice(t *testing.T, owner snowflake.ID, externalID, amount string) {
	t.Helper()
	require.NoError(t, env.db.Exec(
		`INSERT INTO square_invoices (id, owner_id, external_id, customer_email, amount, line_items_summary, synced_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		env.genID.Generate(), owner, externalID, "skipper@example.com", amount, "Hull clean", time.Now().UTC(),
	).Error)
}

func doJSON(t *testing.T, method, path string, owner snowflake.ID, payload any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, env.baseURL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(server.HeaderOwner, owner.String())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}
