package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/andrebq/pressbox/internal/testutil"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
)

func TestRegisterEndpoint(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireLedger(ctx, t)
	defer cleanup()
	_, err := store.Provision(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	handler := AsHandler(store)

	apitest.Handler(handler).
		Post("/register").
		JSON(`{"username":"alice","password":"pw1"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal(`$.username`, "alice")).
		End()
	apitest.Handler(handler).
		Post("/register").
		JSON(`{"username":"alice","password":"pw2"}`).
		Expect(t).
		Status(http.StatusConflict).
		End()
	apitest.Handler(handler).
		Post("/register").
		JSON(`{"username":"mallory","password":"pw1"}`).
		Expect(t).
		Status(http.StatusForbidden).
		End()
	apitest.Handler(handler).
		Post("/register").
		JSON(`{"username":"alice"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
	apitest.Handler(handler).
		Post("/register").
		Body(`not json at all`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestLoginEndpoint(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireLedger(ctx, t)
	defer cleanup()
	_, err := store.Provision(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	handler := AsHandler(store)

	apitest.Handler(handler).
		Post("/register").
		JSON(`{"username":"alice","password":"pw1"}`).
		Expect(t).
		Status(http.StatusCreated).
		End()

	apitest.Handler(handler).
		Post("/login").
		JSON(`{"username":"alice","password":"pw1"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.username`, "alice")).
		Assert(jsonpath.Present(`$.token`)).
		End()
	apitest.Handler(handler).
		Post("/login").
		JSON(`{"username":"alice","password":"wrong"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
	apitest.Handler(handler).
		Post("/login").
		JSON(`{"username":"mallory","password":"pw1"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestProtect(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireLedger(ctx, t)
	defer cleanup()
	_, err := store.Provision(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	handler := AsHandler(store)
	token := registerAndLogin(t, handler, "alice", "pw1")

	realm := NewRealm(store, InMemoryCredentialCache())
	var count uint32
	protected := realm.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint32(&count, 1)
		http.Error(w, "OK", http.StatusOK)
	}))

	apitest.Handler(protected).Get("/").
		Expect(t).Status(http.StatusUnauthorized).End()
	apitest.Handler(protected).Get("/").
		Header("Authorization", fmt.Sprintf("Bearer alice:%v", token)).
		Expect(t).Status(http.StatusOK).End()
	// second pass should be answered from the credential cache
	apitest.Handler(protected).Get("/").
		Header("Authorization", fmt.Sprintf("Bearer alice:%v", token)).
		Expect(t).Status(http.StatusOK).End()
	apitest.Handler(protected).Get("/").
		Header("Authorization", "Bearer alice:wrong").
		Expect(t).Status(http.StatusUnauthorized).End()
	apitest.Handler(protected).Get("/").
		Header("Authorization", fmt.Sprintf("Bearer %v", token)).
		Expect(t).Status(http.StatusUnauthorized).End()
	apitest.Handler(protected).Get("/").
		Header("Authorization", fmt.Sprintf("Basic alice:%v", token)).
		Expect(t).Status(http.StatusUnauthorized).End()
	if count != 2 {
		t.Fatalf("protected endpoint should have been called twice, got %v", count)
	}
}

// Covers the whole account lifecycle over the HTTP boundary: invite,
// register, login, use the token, fail with a bad token, fail to register
// twice.
func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireLedger(ctx, t)
	defer cleanup()
	_, err := store.Provision(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	handler := AsHandler(store)

	apitest.Handler(handler).
		Post("/register").
		JSON(`{"username":"bob","password":"pw1"}`).
		Expect(t).
		Status(http.StatusCreated).
		End()
	token := loginFor(t, handler, "bob", "pw1")

	realm := NewRealm(store, InMemoryCredentialCache())
	protected := realm.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "OK", http.StatusOK)
	}))
	apitest.Handler(protected).Get("/").
		Header("Authorization", fmt.Sprintf("Bearer bob:%v", token)).
		Expect(t).Status(http.StatusOK).End()
	apitest.Handler(protected).Get("/").
		Header("Authorization", "Bearer bob:wrong").
		Expect(t).Status(http.StatusUnauthorized).End()

	apitest.Handler(handler).
		Post("/register").
		JSON(`{"username":"bob","password":"pw2"}`).
		Expect(t).
		Status(http.StatusConflict).
		End()
}

func registerAndLogin(t *testing.T, handler http.Handler, user, password string) string {
	t.Helper()
	apitest.Handler(handler).
		Post("/register").
		JSON(fmt.Sprintf(`{"username":%q,"password":%q}`, user, password)).
		Expect(t).
		Status(http.StatusCreated).
		End()
	return loginFor(t, handler, user, password)
}

func loginFor(t *testing.T, handler http.Handler, user, password string) string {
	t.Helper()
	req := httptest.NewRequest("POST", "/login",
		strings.NewReader(fmt.Sprintf(`{"username":%q,"password":%q}`, user, password)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login for %v failed with status %v", user, rec.Code)
	}
	var body loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Token == "" {
		t.Fatal("login should return a token")
	}
	return body.Token
}
