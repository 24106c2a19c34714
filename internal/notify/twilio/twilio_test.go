package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSender_SendSMS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "auth-token", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+919876543210", r.PostForm.Get("To"))
		assert.Equal(t, "+15550000000", r.PostForm.Get("From"))
		assert.Equal(t, "Your OTP is 123456", r.PostForm.Get("Body"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer srv.Close()

	s := NewSender(srv.Client(), Settings{
		APIURL:     srv.URL + "/",
		AccountSID: "AC123",
		AuthToken:  "auth-token",
		From:       "+15550000000",
	})

	require.NoError(t, s.SendSMS(context.Background(), "+919876543210", "Your OTP is 123456"))
}

func TestSender_SendSMS_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	}))
	defer srv.Close()

	s := NewSender(srv.Client(), Settings{APIURL: srv.URL, AccountSID: "AC1"})
	err := s.SendSMS(context.Background(), "+1", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
}

func TestSender_SendSMS_ErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSender(srv.Client(), Settings{APIURL: srv.URL, AccountSID: "AC1"})
	err := s.SendSMS(context.Background(), "+1", "x")
	require.EqualError(t, err, "request failed with status 500")
}
