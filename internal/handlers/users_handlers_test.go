package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/vidshelf/backend/internal/models"
)

func TestUsersEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	admin, adminToken := createTestUser(t, env.db, "root", "password123", models.UserRoleSuperuser)
	member, memberToken := createTestUser(t, env.db, "publisher-one", "password123", models.UserRolePublisher)

	t.Run("GET /api/users/ superuser lists users", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/?page=1&limit=1", nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		pagination, ok := body["pagination"].(map[string]any)
		if !ok {
			t.Fatalf("expected pagination object in list response")
		}
		if pagination["total"].(float64) != 2 || pagination["totalPages"].(float64) != 2 {
			t.Fatalf("unexpected pagination: %+v", pagination)
		}
	})

	t.Run("GET /api/users/ search by username", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/?search=PUBLISHER", nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		users := dataList(t, body)
		if len(users) != 1 || users[0].(map[string]any)["username"] != "publisher-one" {
			t.Fatalf("expected only publisher-one, got %+v", users)
		}
	})

	t.Run("GET /api/users/ publisher is forbidden", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/", nil, authHeaders(memberToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "superuser access required")
	})

	var createdID float64
	t.Run("POST /api/users/ creates a publisher by default", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/users/", map[string]any{
			"username": "publisher-two",
			"password": "password123",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusCreated)
		data := dataMap(t, body)
		if data["role"] != string(models.UserRolePublisher) {
			t.Fatalf("expected publisher role, got %v", data["role"])
		}
		createdID = data["id"].(float64)
	})

	t.Run("POST /api/users/ duplicate username", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/users/", map[string]any{
			"username": "publisher-two",
			"password": "password123",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusConflict)
		assertEnvelopeError(t, body, "username already taken")
	})

	t.Run("POST /api/users/ invalid role", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/users/", map[string]any{
			"username": "someone",
			"password": "password123",
			"role":     "admin",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, body, "invalid role")
	})

	t.Run("PUT /api/users/:id promotes another user", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, fmt.Sprintf("/api/users/%d", int(createdID)), map[string]any{
			"role":  "superuser",
			"email": "two@example.com",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		data := dataMap(t, body)
		if data["role"] != string(models.UserRoleSuperuser) || data["email"] != "two@example.com" {
			t.Fatalf("unexpected updated user: %+v", data)
		}
	})

	t.Run("PUT /api/users/:id cannot change own role", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, fmt.Sprintf("/api/users/%d", admin.ID), map[string]any{
			"role": "publisher",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, body, "cannot change your own role")
	})

	t.Run("PUT /api/users/:id not found", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/users/9999", map[string]any{
			"email": "x@example.com",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusNotFound)
		assertEnvelopeError(t, body, "user not found")
	})

	t.Run("PUT /api/users/:id invalid id", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/users/abc", map[string]any{
			"email": "x@example.com",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, body, "invalid user id")
	})

	t.Run("DELETE /api/users/:id cannot delete self", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, fmt.Sprintf("/api/users/%d", admin.ID), nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, body, "cannot delete your own account")
	})

	t.Run("DELETE /api/users/:id refuses users that own content", func(t *testing.T) {
		createTestFolder(t, env.db, member, "Mine", "dir-owned", nil)
		resp := performRequest(t, env.app, http.MethodDelete, fmt.Sprintf("/api/users/%d", member.ID), nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusConflict)
		assertEnvelopeError(t, body, "user still owns folders or videos")
	})

	t.Run("DELETE /api/users/:id removes the user and their grants", func(t *testing.T) {
		target, _ := createTestUser(t, env.db, "short-lived", "password123", models.UserRolePublisher)
		share := models.VideoShare{VideoKey: "remote:abc", RemoteFileID: "abc", SharedByUserID: admin.ID, SharedToUserID: target.ID}
		if err := env.db.Create(&share).Error; err != nil {
			t.Fatalf("failed creating share: %v", err)
		}

		resp := performRequest(t, env.app, http.MethodDelete, fmt.Sprintf("/api/users/%d", target.ID), nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)

		var shares int64
		env.db.Model(&models.VideoShare{}).Where("shared_to_user_id = ?", target.ID).Count(&shares)
		if shares != 0 {
			t.Fatalf("expected shares to be removed with the user, got %d", shares)
		}

		again := performRequest(t, env.app, http.MethodDelete, fmt.Sprintf("/api/users/%d", target.ID), nil, authHeaders(adminToken))
		assertStatus(t, again, http.StatusNotFound)
	})

	t.Run("deleted user token stops working", func(t *testing.T) {
		target, token := createTestUser(t, env.db, "gone", "password123", models.UserRolePublisher)
		resp := performRequest(t, env.app, http.MethodDelete, fmt.Sprintf("/api/users/%d", target.ID), nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)

		me := performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, authHeaders(token))
		body := decodeJSONMap(t, me)
		assertStatus(t, me, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "user not found")
	})
}
