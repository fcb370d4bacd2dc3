package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/shopwise/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

func decodeString(body string) (loginBody, error) {
	var dst loginBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := decodeBody(httptest.NewRecorder(), req, &dst)
	return dst, err
}

func TestDecodeBody(t *testing.T) {
	dst, err := decodeString(`{"email":"a@b.co","password":"x","extra":1}`)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", dst.Email)

	_, err = decodeString("")
	assert.NoError(t, err)
}

func TestDecodeBody_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"truncated", `{"email":"a@b.co"`, "Body contains malformed JSON"},
		{"syntax", `{"email" "a@b.co"}`, "Body contains malformed JSON at character"},
		{"wrong type", `{"remember":"yes"}`, `Body contains incorrect JSON type for field "remember"`},
		{"two values", `{"email":"a"}{"email":"b"}`, "Body must only contain a single JSON value"},
		{"too large", `{"email":"` + strings.Repeat("a", maxBodyBytes) + `"}`, "Body must not be larger than 1048576 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeString(tt.body)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestDecodeBody_WrongTypeNamesField(t *testing.T) {
	_, err := decodeString(`{"remember":"yes"}`)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "remember")
}
