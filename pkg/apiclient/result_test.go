package apiclient

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront.app/pkg/errs"
)

func TestFailureNeverEmpty(t *testing.T) {
	r := Failure[int]("", http.StatusInternalServerError)
	assert.False(t, r.OK)
	assert.Equal(t, defaultFailure, r.Error)
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, Success(1, "ok").Err())

	notFound := Failure[int]("gone", http.StatusNotFound).Err()
	assert.Equal(t, errs.NotFound, errs.Code(notFound))

	local := Invalid[int](errs.Validation("quantity must be at least 1"))
	assert.True(t, local.Rejected())
	assert.Equal(t, "quantity must be at least 1", local.Error)
	assert.True(t, errs.IsValidation(local.Err()))

	plain := Invalid[int](errors.New("boom"))
	assert.Equal(t, "boom", plain.Error)
}

func TestRecastKeepsFailure(t *testing.T) {
	in := Invalid[string](errs.Validation("bad"))
	out := recast[[]int](in)
	assert.False(t, out.OK)
	assert.Nil(t, out.Data)
	assert.True(t, out.Rejected())
	assert.Equal(t, "bad", out.Error)
}

func TestEnvelopeErrorMessage(t *testing.T) {
	var nilEnv *envelope
	assert.Equal(t, "fallback", nilEnv.errorMessage("fallback"))

	env := &envelope{Message: []byte(`"  "`), Error: []byte(`"boom"`)}
	assert.Equal(t, "boom", env.errorMessage("fallback"))
}

func TestPathfEscapes(t *testing.T) {
	assert.Equal(t, "/activities/a%2Fb", pathf("/activities/%s", "a/b"))
}
