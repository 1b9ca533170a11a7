package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codinggeeks/api/internal/handler"
)

func TestUserHandler(t *testing.T) {
	env := newTestEnv(t)

	t.Run("ensure creates then returns existing", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/user", `{"email":"Ada@X.com","name":"Ada"}`, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var first handler.UserResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&first))
		assert.Equal(t, "ada@x.com", first.User.Email)
		assert.NotEmpty(t, first.User.ID)

		rr = env.do(t, http.MethodPost, "/api/user", `{"email":"ada@x.com","name":"Impostor"}`, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var second handler.UserResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&second))
		assert.Equal(t, first.User.ID, second.User.ID)
		assert.Equal(t, "Ada", second.User.Name)
	})

	t.Run("ensure without email", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/user", `{"name":"Nobody"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		e := decodeError(t, rr)
		assert.Equal(t, "validation_error", e.Code)
		assert.Equal(t, "email", e.Field)
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/user", `{"email":`, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "body", decodeError(t, rr).Field)
	})

	t.Run("get", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/user?email=ADA@x.com", nil, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = env.do(t, http.MethodGet, "/api/user?email=ghost@x.com", nil, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "not_found", decodeError(t, rr).Code)

		rr = env.do(t, http.MethodGet, "/api/user", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "missing_parameter", decodeError(t, rr).Code)
	})

	t.Run("update patches only supplied fields", func(t *testing.T) {
		rr := env.do(t, http.MethodPut, "/api/user", `{"email":"ada@x.com","leetcode":"ada_lc"}`, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var got handler.UserResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		assert.Equal(t, "ada_lc", got.User.LeetCode)
		assert.Equal(t, "Ada", got.User.Name)
	})

	t.Run("update unknown user does not create", func(t *testing.T) {
		rr := env.do(t, http.MethodPut, "/api/user", `{"email":"new@x.com","name":"New"}`, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = env.do(t, http.MethodGet, "/api/user?email=new@x.com", nil, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
