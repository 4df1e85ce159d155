package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStkPush_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stkpush", r.URL.Path)
		require.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var in stkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, "254700000001", in.PhoneNumber)
		require.Equal(t, "1500", in.Amount)
		require.Equal(t, "TRX-ABCDEF12", in.Reference)
		_ = json.NewEncoder(w).Encode(stkResponse{CheckoutRequestID: "ws_CO_1", ResponseCode: "0"})
	}))
	defer srv.Close()

	g := NewStkPush(srv.URL, "k", time.Second)
	ext, err := g.InitiateStkPush(context.Background(), "254700000001", decimal.NewFromInt(1500), "TRX-ABCDEF12", "savings")
	require.NoError(t, err)
	require.Equal(t, "ws_CO_1", ext)
}

func TestStkPush_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad phone", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewStkPush(srv.URL, "", time.Second).InitiateStkPush(context.Background(), "x", decimal.NewFromInt(1), "r", "d")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusBadRequest, se.Code)
}

func TestStkPush_RejectedCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(stkResponse{ResponseCode: "1", ResponseMessage: "insufficient balance"})
	}))
	defer srv.Close()

	_, err := NewStkPush(srv.URL, "", time.Second).InitiateStkPush(context.Background(), "x", decimal.NewFromInt(1), "r", "d")
	require.ErrorContains(t, err, "insufficient balance")
}
