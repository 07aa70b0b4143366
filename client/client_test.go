package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/api"
	"github.com/sports-festival/festival-registration/fees"
	"github.com/sports-festival/festival-registration/ptr"
	"github.com/sports-festival/festival-registration/registration"
	"github.com/sports-festival/festival-registration/sports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noopLogger = slog.New(slog.DiscardHandler)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(server.URL+"/", server.Client(), noopLogger)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func personalDetails() registration.PersonalDetails {
	return registration.PersonalDetails{
		FirstName:   "Amani",
		LastName:    "Otieno",
		DateOfBirth: "2015-03-14",
		Gender:      "FEMALE",
		Email:       "amani@example.com",
		Phone:       "+254712345678",
		SchoolName:  "Kilimani Primary",
		County:      "Nairobi",
	}
}

func TestLoadCheckpoint(t *testing.T) {
	t.Run("decodes the checkpoint", func(t *testing.T) {
		saved := registration.Checkpoint{
			Email:          "amani@example.com",
			Flow:           "student",
			Step:           registration.StepDocuments,
			CompletedSteps: registration.NewStepSet(registration.StepDetails),
			Data:           registration.StepData{registration.StepDetails: personalDetails()},
			UpdatedAt:      time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		}
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/checkpoints/amani@example.com", r.URL.Path)
			writeJSON(t, w, http.StatusOK, saved)
		})

		checkpoint, err := c.LoadCheckpoint(context.Background(), "amani@example.com")

		require.NoError(t, err)
		if diff := cmp.Diff(saved, checkpoint); diff != "" {
			t.Errorf("checkpoint mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("404 means nothing saved", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusNotFound, api.Error{Code: api.NotFound, Message: "Checkpoint does not exist"})
		})

		_, err := c.LoadCheckpoint(context.Background(), "amani@example.com")

		var regErr *registration.Error
		require.True(t, errors.As(err, &regErr))
		assert.Equal(t, registration.REASON_CHECKPOINT_DOES_NOT_EXIST, regErr.Reason)
	})

	t.Run("server failure keeps the api error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusInternalServerError, api.Error{Code: api.InternalError, Message: "boom"})
		})

		_, err := c.LoadCheckpoint(context.Background(), "amani@example.com")

		var regErr *registration.Error
		require.True(t, errors.As(err, &regErr))
		assert.Equal(t, registration.REASON_FAILED_TO_FETCH, regErr.Reason)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Equal(t, api.InternalError, apiErr.Code)
	})
}

func TestSaveCheckpoint(t *testing.T) {
	t.Run("puts the checkpoint under its email", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/checkpoints/amani@example.com", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var got registration.Checkpoint
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, registration.StepDocuments, got.Step)
			assert.Equal(t, personalDetails(), got.Data[registration.StepDetails])

			w.WriteHeader(http.StatusNoContent)
		})

		err := c.SaveCheckpoint(context.Background(), registration.Checkpoint{
			Email: "amani@example.com",
			Flow:  "student",
			Step:  registration.StepDocuments,
			Data:  registration.StepData{registration.StepDetails: personalDetails()},
		})

		assert.NoError(t, err)
	})

	t.Run("rejection", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusBadRequest, api.Error{Code: api.InvalidBody, Message: "bad"})
		})

		err := c.SaveCheckpoint(context.Background(), registration.Checkpoint{Email: "amani@example.com"})

		var regErr *registration.Error
		require.True(t, errors.As(err, &regErr))
		assert.Equal(t, registration.REASON_FAILED_TO_WRITE, regErr.Reason)
	})
}

func TestClearCheckpoint(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/checkpoints/amani@example.com", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.ClearCheckpoint(context.Background(), "amani@example.com"))
}

func TestSaveStep(t *testing.T) {
	t.Run("sends the payload envelope to the step number", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/drafts/student/amani@example.com/steps/1", r.URL.Path)

			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			payload, err := registration.UnmarshalPayload(raw)
			require.NoError(t, err)
			assert.Equal(t, personalDetails(), payload)

			w.WriteHeader(http.StatusNoContent)
		})

		err := c.SaveStep(context.Background(), "student", "amani@example.com", registration.StepDetails, personalDetails())

		assert.NoError(t, err)
	})

	t.Run("validation failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusBadRequest, api.Error{Code: api.InputValidationError, Message: "Step is invalid"})
		})

		err := c.SaveStep(context.Background(), "student", "amani@example.com", registration.StepDetails, personalDetails())

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, api.InputValidationError, apiErr.Code)
	})
}

func TestGetStepDrafts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drafts/student/amani@example.com", r.URL.Path)
		writeJSON(t, w, http.StatusOK, api.StepDrafts{
			Flow:  "student",
			Email: "amani@example.com",
			Data:  registration.StepData{registration.StepDetails: personalDetails()},
		})
	})

	data, err := c.GetStepDrafts(context.Background(), "student", "amani@example.com")

	require.NoError(t, err)
	assert.Equal(t, personalDetails(), data[registration.StepDetails])
}

func TestSubmit(t *testing.T) {
	t.Run("maps the receipt", func(t *testing.T) {
		id := uuid.New()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/institutions", r.URL.Path)
			assert.Equal(t, "turnstile-token", r.Header.Get("cf-turnstile-response"))

			var body api.SubmitRegistration
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "sports@kilimani.ac.ke", body.Email)

			writeJSON(t, w, http.StatusOK, api.RegistrationReceipt{
				Id:       id,
				TotalFee: api.Money{Amount: 3200, Currency: "KES"},
				Paid:     true,
			})
		})
		c.SetCaptchaToken("turnstile-token")

		result, err := c.Submit(context.Background(), "institution", registration.State{
			Email: "sports@kilimani.ac.ke",
			Data:  registration.StepData{},
		})

		require.NoError(t, err)
		assert.Equal(t, registration.SubmitResult{ID: id, TotalFee: 3200, Currency: "KES"}, result)
	})

	t.Run("closed registration", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusForbidden, api.Error{Code: api.RegistrationClosed, Message: "Registration closed"})
		})

		_, err := c.Submit(context.Background(), "student", registration.State{Email: "amani@example.com"})

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Equal(t, api.RegistrationClosed, apiErr.Code)
	})

	t.Run("unknown flow never calls the api", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})

		_, err := c.Submit(context.Background(), "coach", registration.State{})

		var regErr *registration.Error
		require.True(t, errors.As(err, &regErr))
		assert.Equal(t, registration.REASON_UNKNOWN_FLOW, regErr.Reason)
	})
}

func TestGetPricing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pricing/sport", r.URL.Path)
		writeJSON(t, w, http.StatusOK, fees.FlatTable(fees.SPORT, "KES", 1000))
	})

	table, err := c.GetPricing(context.Background(), fees.SPORT)

	require.NoError(t, err)
	assert.Equal(t, fees.FlatTable(fees.SPORT, "KES", 1000), table)
}

func TestQuoteFee(t *testing.T) {
	t.Run("uses the api pricing", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, fees.FlatTable(fees.SPORT, "KES", 1000))
		})

		quote := c.QuoteFee(context.Background(), fees.SPORT, 2, money.New(500, "KES"))

		assert.False(t, quote.Estimated)
		assert.Equal(t, int64(2000), quote.Total.Amount())
	})

	t.Run("falls back when pricing is unavailable", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusInternalServerError, api.Error{Code: api.InternalError, Message: "boom"})
		})

		quote := c.QuoteFee(context.Background(), fees.SPORT, 2, money.New(500, "KES"))

		assert.True(t, quote.Estimated)
		assert.Equal(t, fees.EstimatedFeeWarning, quote.Warning)
		assert.Equal(t, int64(1000), quote.Total.Amount())
	})
}

func TestSports(t *testing.T) {
	id := uuid.New()
	apiSport := api.Sport{
		Id:          &id,
		Version:     ptr.Int(2),
		Name:        "Athletics",
		Category:    "INDIVIDUAL",
		AgeGroups:   []string{"U12"},
		NumStudents: ptr.Int(4),
	}

	t.Run("get", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/sports/"+id.String(), r.URL.Path)
			writeJSON(t, w, http.StatusOK, apiSport)
		})

		sport, err := c.GetSport(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, sports.Sport{
			ID:          id,
			Version:     2,
			Name:        "Athletics",
			Category:    sports.INDIVIDUAL,
			AgeGroups:   []string{"U12"},
			NumStudents: 4,
		}, sport)
	})

	t.Run("get missing", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusNotFound, api.Error{Code: api.NotFound, Message: "Sport does not exist"})
		})

		_, err := c.GetSport(context.Background(), id)

		var sportErr *sports.Error
		require.True(t, errors.As(err, &sportErr))
		assert.Equal(t, sports.REASON_SPORT_DOES_NOT_EXIST, sportErr.Reason)
	})

	t.Run("list passes limit and cursor", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/sports", r.URL.Path)
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			assert.Equal(t, "abc", r.URL.Query().Get("cursor"))
			writeJSON(t, w, http.StatusOK, api.SportsPage{
				Data:        []api.Sport{apiSport},
				Cursor:      ptr.String("def"),
				HasNextPage: true,
			})
		})

		page, err := c.ListSports(context.Background(), 5, ptr.String("abc"))

		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, id, page.Data[0].ID)
		assert.Equal(t, "def", *page.Cursor)
		assert.True(t, page.HasNextPage)
	})
}
