package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL:    srv.URL,
		GraphQLURL: srv.URL + "/graphql",
		Token:      "test-token",
		PerPage:    2,
	})
	return client, srv
}

func TestListOrgReposPagination(t *testing.T) {
	var gotAuth, gotAccept string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")

		switch r.URL.Query().Get("page") {
		case "1":
			json.NewEncoder(w).Encode([]Repo{
				{Name: "svc", HTMLURL: "https://example.com/acme/svc"},
				{Name: "lib", HTMLURL: "https://example.com/acme/lib"},
			})
		default:
			json.NewEncoder(w).Encode([]Repo{})
		}
	})

	page1, err := client.ListOrgRepos(context.Background(), "acme", 1)
	require.NoError(t, err)
	assert.Len(t, page1, 2)
	assert.Equal(t, "token test-token", gotAuth)
	assert.Equal(t, "application/vnd.github+json", gotAccept)

	page2, err := client.ListOrgRepos(context.Background(), "acme", 2)
	require.NoError(t, err)
	assert.Empty(t, page2)
}

func TestGetJSONErrorMapping(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orgs/acme/teams":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	_, err := client.ListOrgRepos(context.Background(), "acme", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.ListTeams(context.Background(), "acme")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
}

func TestListTeamMembersStripsTemplate(t *testing.T) {
	var gotPath string
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]Member{{Login: "alice"}, {Login: "bob"}})
	})

	members, err := client.ListTeamMembers(context.Background(),
		srv.URL+"/organizations/1/team/2/members{/member}")
	require.NoError(t, err)
	assert.Equal(t, "/organizations/1/team/2/members", gotPath)
	assert.Len(t, members, 2)
}

func TestGetContents(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/svc/contents/CODEOWNERS":
			json.NewEncoder(w).Encode(Contents{
				Name:    "CODEOWNERS",
				Content: base64.StdEncoding.EncodeToString([]byte("* @alice\n")),
			})
		case "/repos/acme/svc/contents/empty":
			json.NewEncoder(w).Encode(Contents{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	contents, err := client.GetContents(context.Background(), "acme", "svc", "CODEOWNERS")
	require.NoError(t, err)

	body, err := DecodeContent(contents)
	require.NoError(t, err)
	assert.Equal(t, "* @alice\n", body)

	// A 200 with an empty record is still a missing file.
	_, err = client.GetContents(context.Background(), "acme", "svc", "empty")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.GetContents(context.Background(), "acme", "svc", ".github/CODEOWNERS")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecodeContentStripsWrapping(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("* @acme/platform"))
	wrapped := encoded[:8] + "\n" + encoded[8:]

	body, err := DecodeContent(&Contents{Name: "CODEOWNERS", Content: wrapped})
	require.NoError(t, err)
	assert.Equal(t, "* @acme/platform", body)
}

func TestOrgMembers(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/graphql", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req struct {
			Variables map[string]string `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "acme", req.Variables["login"])

		w.Write([]byte(`{"data":{"organization":{"membersWithRole":{"edges":[
			{"node":{"login":"alice","name":"Alice","organizationVerifiedDomainEmails":["alice@acme.com"]}},
			{"node":{"login":"bob","name":"","organizationVerifiedDomainEmails":[]}}
		]}}}}`))
	})

	members, err := client.OrgMembers(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Login)
	assert.Equal(t, []string{"alice@acme.com"}, members[0].VerifiedEmails)
	assert.Equal(t, "bob", members[1].Login)
}

func TestOrgMembersMissingOrganisation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"organization":null}}`))
	})

	_, err := client.OrgMembers(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrgMembersHTTPFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.OrgMembers(context.Background(), "acme")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusUnauthorized, fetchErr.StatusCode)
}
