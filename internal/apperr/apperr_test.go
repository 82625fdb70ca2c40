package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	v := Validation("bad")
	assert.Same(t, v, From(fmt.Errorf("wrapped: %w", v)))

	assert.Equal(t, CodeNotFound, From(fmt.Errorf("get quote: %w", pgx.ErrNoRows)).Code)
	assert.Equal(t, CodeDatabase, From(&pgconn.PgError{Code: "23505"}).Code)
	assert.Equal(t, CodeInternal, From(errors.New("boom")).Code)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeValidation))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(CodeUnauthorized))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(CodeForbidden))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeEmail))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeDatabase))
}

func TestIsAndUnwrap(t *testing.T) {
	cause := errors.New("smtp down")
	err := fmt.Errorf("validate: %w", Email(cause))
	assert.True(t, Is(err, CodeEmail))
	assert.False(t, Is(err, CodeValidation))
	assert.ErrorIs(t, err, cause)
}
