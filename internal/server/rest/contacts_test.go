package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeContact(t *testing.T, r response) models.Contact {
	t.Helper()
	var data struct {
		Result models.Contact `json:"result"`
	}
	require.NoError(t, json.Unmarshal(r.Data, &data), string(r.Data))
	return data.Result
}

func decodeContacts(t *testing.T, r response) []models.Contact {
	t.Helper()
	var data struct {
		Result []models.Contact `json:"result"`
	}
	require.NoError(t, json.Unmarshal(r.Data, &data), string(r.Data))
	return data.Result
}

func TestContacts_CRUD(t *testing.T) {
	s, box := newTestServer(t)
	signupAndVerify(t, s, box, "a@x.com", "pw")
	token := login(t, s, "a@x.com", "pw")

	code, r := do(t, s, http.MethodPost, "/contacts", token, jsonBody{"name": " Ann ", "email": "Ann@X.com", "phone": "555"})
	require.Equal(t, http.StatusCreated, code, r.Message)
	created := decodeContact(t, r)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ann", created.Name)
	assert.Equal(t, "ann@x.com", created.Email)
	assert.False(t, created.Favorite)

	code, r = do(t, s, http.MethodGet, "/contacts/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, created.ID, decodeContact(t, r).ID)

	code, r = do(t, s, http.MethodPut, "/contacts/"+created.ID, token, jsonBody{"name": "Anna", "phone": "777"})
	require.Equal(t, http.StatusOK, code, r.Message)
	assert.Equal(t, "contact updated", r.Message)
	updated := decodeContact(t, r)
	assert.Equal(t, "Anna", updated.Name)
	assert.Equal(t, "", updated.Email)
	assert.Equal(t, "777", updated.Phone)

	code, r = do(t, s, http.MethodPatch, "/contacts/"+created.ID+"/favorite", token, jsonBody{"favorite": true})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decodeContact(t, r).Favorite)

	code, r = do(t, s, http.MethodGet, "/contacts", token, nil)
	require.Equal(t, http.StatusOK, code)
	list := decodeContacts(t, r)
	require.Len(t, list, 1)
	assert.Equal(t, "Anna", list[0].Name)

	code, r = do(t, s, http.MethodDelete, "/contacts/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "contact deleted", r.Message)

	code, r = do(t, s, http.MethodGet, "/contacts/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "contact not found", r.Message)

	code, r = do(t, s, http.MethodGet, "/contacts", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"result":[]}`, string(r.Data))
}

func TestContacts_ScopedToCaller(t *testing.T) {
	s, box := newTestServer(t)
	signupAndVerify(t, s, box, "a@x.com", "pw")
	signupAndVerify(t, s, box, "b@x.com", "pw")
	alice := login(t, s, "a@x.com", "pw")
	bob := login(t, s, "b@x.com", "pw")

	code, r := do(t, s, http.MethodPost, "/contacts", alice, jsonBody{"name": "Ann"})
	require.Equal(t, http.StatusCreated, code)
	id := decodeContact(t, r).ID

	for _, rt := range []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/contacts/" + id, nil},
		{http.MethodPut, "/contacts/" + id, jsonBody{"name": "Mallory"}},
		{http.MethodPatch, "/contacts/" + id + "/favorite", jsonBody{"favorite": true}},
		{http.MethodDelete, "/contacts/" + id, nil},
	} {
		code, _ := do(t, s, rt.method, rt.path, bob, rt.body)
		assert.Equal(t, http.StatusNotFound, code, "%s %s", rt.method, rt.path)
	}

	code, r = do(t, s, http.MethodGet, "/contacts", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decodeContacts(t, r))

	code, r = do(t, s, http.MethodGet, "/contacts/"+id, alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Ann", decodeContact(t, r).Name)
	assert.False(t, decodeContact(t, r).Favorite)
}

func TestContacts_Validation(t *testing.T) {
	s, box := newTestServer(t)
	signupAndVerify(t, s, box, "a@x.com", "pw")
	token := login(t, s, "a@x.com", "pw")

	cases := []struct {
		name string
		body any
	}{
		{"missing name", jsonBody{"email": "a@b.com"}},
		{"bad email", jsonBody{"name": "Ann", "email": "not-an-email"}},
		{"blank name", jsonBody{"name": "   "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := do(t, s, http.MethodPost, "/contacts", token, tc.body)
			assert.Equal(t, http.StatusBadRequest, code)
		})
	}

	code, r := do(t, s, http.MethodPost, "/contacts", token, jsonBody{"name": "Ann"})
	require.Equal(t, http.StatusCreated, code)
	id := decodeContact(t, r).ID

	code, r = do(t, s, http.MethodPatch, "/contacts/"+id+"/favorite", token, jsonBody{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "missing field favorite", r.Message)

	code, _ = do(t, s, http.MethodGet, "/contacts?limit=500", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, s, http.MethodGet, "/contacts?page=-1", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestContacts_ListPagingAndFavorites(t *testing.T) {
	s, box := newTestServer(t)
	signupAndVerify(t, s, box, "a@x.com", "pw")
	token := login(t, s, "a@x.com", "pw")

	for i := 0; i < 7; i++ {
		body := jsonBody{"name": fmt.Sprintf("c%d", i), "favorite": i%3 == 0}
		code, _ := do(t, s, http.MethodPost, "/contacts", token, body)
		require.Equal(t, http.StatusCreated, code)
	}

	code, r := do(t, s, http.MethodGet, "/contacts?page=2&limit=3", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeContacts(t, r), 3)

	code, r = do(t, s, http.MethodGet, "/contacts?page=3&limit=3", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeContacts(t, r), 1)

	code, r = do(t, s, http.MethodGet, "/contacts?favorite=true", token, nil)
	require.Equal(t, http.StatusOK, code)
	favs := decodeContacts(t, r)
	assert.Len(t, favs, 3)
	for _, c := range favs {
		assert.True(t, c.Favorite)
	}
}
