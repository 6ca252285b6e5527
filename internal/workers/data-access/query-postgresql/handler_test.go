package querypostgresql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealmatch-workers/internal/common/camunda/camundatest"
	apperrors "dealmatch-workers/internal/common/errors"
	"dealmatch-workers/internal/common/logger"
	"dealmatch-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var buyerColumns = []string{"id", "name", "email", "phone", "country", "state", "city", "industries",
	"budget_range_lower", "budget_range_higher", "size_preference", "about", "timeline"}

var listingColumns = []string{"id", "title", "seller_id", "country", "state", "city", "industry",
	"asking_price_lower_bound", "asking_price_upper_bound", "employees", "monthly_revenue",
	"description", "timeline", "updated_at"}

func createTestConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		DefaultLimit: 25,
	}
}

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHandler(createTestConfig(), db, nil, logger.NewTestLogger(t)), mock
}

func addListing(rows *sqlmock.Rows, id, city string) *sqlmock.Rows {
	return rows.AddRow(id, "Shop "+id, "seller-1", "USA", "Florida", city, "Retail",
		100000.0, 150000.0, int64(20), 15000.0, "retail store", 3.0, time.Now())
}

func addBuyer(rows *sqlmock.Rows, id string) *sqlmock.Rows {
	return rows.AddRow(id, "Buyer "+id, id+"@example.com", "", "USA", "Florida", "Miami",
		[]byte(`["Retail"]`), nil, nil, "Small", "", nil)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		mockQuery      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:  "buyer profile",
			input: &Input{QueryType: string(QueryTypeBuyerProfile), BuyerID: "buyer-1"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM buyers WHERE id = \$1`).
					WithArgs("buyer-1").
					WillReturnRows(addBuyer(sqlmock.NewRows(buyerColumns), "buyer-1"))
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				buyer := output.Data.(*models.Buyer)
				assert.Equal(t, "buyer-1", buyer.ID)
				assert.Equal(t, []string{"Retail"}, buyer.Industries)
				assert.Nil(t, buyer.BudgetRangeLower)
			},
		},
		{
			name:  "listing details",
			input: &Input{QueryType: string(QueryTypeListingDetails), ListingID: "listing-1"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM listings WHERE id = \$1`).
					WithArgs("listing-1").
					WillReturnRows(addListing(sqlmock.NewRows(listingColumns), "listing-1", "Miami"))
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				listing := output.Data.(*models.Listing)
				require.NotNil(t, listing.Employees)
				assert.Equal(t, 20, *listing.Employees)
			},
		},
		{
			name:  "active listings with explicit limit",
			input: &Input{QueryType: string(QueryTypeActiveListings), Limit: 2},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(listingColumns)
				addListing(rows, "l1", "Miami")
				addListing(rows, "l2", "Tampa")
				mock.ExpectQuery(`FROM listings WHERE status = 'active'`).
					WithArgs(2).
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)
				listings := output.Data.([]models.Listing)
				assert.Equal(t, "Tampa", listings[1].City)
			},
		},
		{
			name:  "active buyers fall back to default limit",
			input: &Input{QueryType: string(QueryTypeActiveBuyers)},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM buyers WHERE active = TRUE`).
					WithArgs(25).
					WillReturnRows(addBuyer(sqlmock.NewRows(buyerColumns), "b1"))
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := createTestHandler(t)
			tt.mockQuery(mock)

			output, err := handler.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			require.NotNil(t, output)
			assert.GreaterOrEqual(t, output.QueryExecutionTime, int64(0))
			assert.NoError(t, mock.ExpectationsWereMet())
			tt.validateOutput(t, output)
		})
	}
}

func TestHandler_Execute_QueryErrors(t *testing.T) {
	tests := []struct {
		name         string
		input        *Input
		mockQuery    func(mock sqlmock.Sqlmock)
		expectedCode apperrors.ErrorCode
	}{
		{
			name:         "unknown query type",
			input:        &Input{QueryType: "seller_history"},
			mockQuery:    func(mock sqlmock.Sqlmock) {},
			expectedCode: apperrors.ErrCodeInvalidQueryType,
		},
		{
			name:         "missing buyer id",
			input:        &Input{QueryType: string(QueryTypeBuyerProfile)},
			mockQuery:    func(mock sqlmock.Sqlmock) {},
			expectedCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name:  "listing not found",
			input: &Input{QueryType: string(QueryTypeListingDetails), ListingID: "gone"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM listings WHERE id = \$1`).WillReturnError(sql.ErrNoRows)
			},
			expectedCode: apperrors.ErrCodeProfileNotFound,
		},
		{
			name:  "database error",
			input: &Input{QueryType: string(QueryTypeActiveListings), Limit: 5},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM listings`).WillReturnError(errors.New("connection refused"))
			},
			expectedCode: apperrors.ErrCodeQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := createTestHandler(t)
			tt.mockQuery(mock)

			output, err := handler.Execute(context.Background(), tt.input)

			assert.Nil(t, output)
			assert.True(t, apperrors.HasCode(err, tt.expectedCode), "got %v", err)
		})
	}
}

func TestHandler_Execute_Timeout(t *testing.T) {
	handler, mock := createTestHandler(t)
	mock.ExpectQuery(`FROM buyers WHERE id = \$1`).
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(addBuyer(sqlmock.NewRows(buyerColumns), "buyer-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := handler.Execute(ctx, &Input{QueryType: string(QueryTypeBuyerProfile), BuyerID: "buyer-1"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQueryTimeout), "got %v", err)
}

// ==========================
// Job Lifecycle Tests
// ==========================

func TestHandler_Handle_CompletesJob(t *testing.T) {
	handler, mock := createTestHandler(t)
	mock.ExpectQuery(`FROM buyers WHERE id = \$1`).
		WithArgs("buyer-1").
		WillReturnRows(addBuyer(sqlmock.NewRows(buyerColumns), "buyer-1"))

	client := camundatest.NewJobClient()
	job := camundatest.NewJob(t, 1, TaskType, map[string]interface{}{
		"queryType": "buyer_profile",
		"buyerId":   "buyer-1",
	})

	handler.Handle(client, job)

	require.Len(t, client.Completed(), 1)
	var out struct {
		Data     models.Buyer `json:"data"`
		RowCount int          `json:"rowCount"`
	}
	camundatest.DecodeVariables(t, client.Completed()[0].Variables, &out)
	assert.Equal(t, "buyer-1", out.Data.ID)
	assert.Equal(t, 1, out.RowCount)
}

func TestHandler_Handle_ReportsErrors(t *testing.T) {
	t.Run("malformed variables throw INVALID_INPUT", func(t *testing.T) {
		handler, _ := createTestHandler(t)
		client := camundatest.NewJobClient()

		handler.Handle(client, camundatest.NewJob(t, 2, TaskType, `{"queryType":`))

		require.Len(t, client.Thrown(), 1)
		assert.Equal(t, "INVALID_INPUT", client.Thrown()[0].ErrorCode)
	})

	t.Run("database failure fails job with retries", func(t *testing.T) {
		handler, mock := createTestHandler(t)
		mock.ExpectQuery(`FROM listings`).WillReturnError(errors.New("connection reset"))
		client := camundatest.NewJobClient()

		handler.Handle(client, camundatest.NewJob(t, 3, TaskType, map[string]interface{}{
			"queryType": "active_listings",
		}))

		require.Len(t, client.Failed(), 1)
		assert.Empty(t, client.Thrown())
		assert.Equal(t, int32(2), client.Failed()[0].Retries)
	})
}
