package upstream

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/festivo/backstop/internal/domain"
	e "github.com/festivo/backstop/internal/errors"
)

const testTenant = "aaaaaaaa-0000-0000-0000-000000000000"

type fakeHttpClient struct {
	t *testing.T

	requests  []*http.Request
	responses []*http.Response
	err       error
}

func (f *fakeHttpClient) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)

	if f.err != nil {
		return nil, f.err
	}

	require.NotEmpty(f.t, f.responses, "unexpected request %s %s", req.Method, req.URL)
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func jsonResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func newTestClient(t *testing.T, httpClient HttpClient) *Client {
	t.Helper()

	client, err := NewClient(httpClient, "https://api.festivo.test", "test-api-key")
	require.NoError(t, err)
	return client
}

func TestClientListGuests(t *testing.T) {
	t.Parallel()

	httpClient := &fakeHttpClient{
		t: t,
		responses: []*http.Response{
			jsonResponse(200, `[
				{"id":"guest-1","name":"Ada","email":"ada@example.com","rsvp":"confirmed","plusOnes":1,"updatedAt":"2026-03-14T15:09:26Z"},
				{"id":"guest-2","name":"Brendan","email":"brendan@example.com","rsvp":"pending","plusOnes":0,"updatedAt":"2026-03-14T15:09:26Z"}
			]`),
		},
	}
	client := newTestClient(t, httpClient)

	guests, err := client.ListGuests(t.Context(), testTenant, domain.GuestFilter{RSVP: domain.RSVPConfirmed})
	require.NoError(t, err)

	require.Len(t, guests, 2)
	require.Equal(t, "Ada", guests[0].Name)
	require.Equal(t, domain.RSVPConfirmed, guests[0].RSVP)
	require.Equal(t, 1, guests[0].PlusOnes)

	require.Len(t, httpClient.requests, 1)
	req := httpClient.requests[0]
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "/tenants/"+testTenant+"/guests", req.URL.Path)
	require.Equal(t, "confirmed", req.URL.Query().Get("rsvp"))
	require.Equal(t, "Bearer test-api-key", req.Header.Get("Authorization"))
	require.NotEmpty(t, req.Header.Get("User-Agent"))
}

func TestClientCreateGuestSendsJSONBody(t *testing.T) {
	t.Parallel()

	httpClient := &fakeHttpClient{
		t: t,
		responses: []*http.Response{
			jsonResponse(201, `{"id":"guest-3","name":"Chandra","email":"chandra@example.com","rsvp":"pending","plusOnes":2,"updatedAt":"2026-03-14T15:09:26Z"}`),
		},
	}
	client := newTestClient(t, httpClient)

	guest, err := client.CreateGuest(t.Context(), testTenant, domain.GuestDraft{
		Name:     "Chandra",
		Email:    "chandra@example.com",
		PlusOnes: 2,
	})
	require.NoError(t, err)
	require.Equal(t, "guest-3", guest.ID)
	require.Equal(t, domain.RSVPPending, guest.RSVP)

	require.Len(t, httpClient.requests, 1)
	req := httpClient.requests[0]
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "application/json", req.Header.Get("Content-Type"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Chandra","email":"chandra@example.com","plusOnes":2}`, string(body))
}

func TestClientMapsNotFound(t *testing.T) {
	t.Parallel()

	httpClient := &fakeHttpClient{
		t:         t,
		responses: []*http.Response{jsonResponse(404, `{"error":"no such guest"}`)},
	}
	client := newTestClient(t, httpClient)

	_, err := client.UpdateGuest(t.Context(), testTenant, "missing-guest", domain.GuestPatch{})
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, err, e.ErrTerminalRequest)
	require.False(t, e.IsRetryable(err))
}

func TestClientMapsTransportFailures(t *testing.T) {
	t.Parallel()

	httpClient := &fakeHttpClient{t: t, err: io.ErrUnexpectedEOF}
	client := newTestClient(t, httpClient)

	_, err := client.GetSummary(t.Context(), testTenant)
	require.ErrorIs(t, err, e.ErrTransientNetwork)
	require.True(t, e.IsRetryable(err))
}

func TestClientMapsRateLimiting(t *testing.T) {
	t.Parallel()

	resp := jsonResponse(429, `{"error":"slow down"}`)
	resp.Header.Set("Retry-After", "7")
	httpClient := &fakeHttpClient{t: t, responses: []*http.Response{resp}}
	client := newTestClient(t, httpClient)

	_, err := client.GetSettings(t.Context(), testTenant)
	require.ErrorIs(t, err, e.ErrRateLimited)
	require.True(t, e.IsRetryable(err))
}

func TestClientCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	responses := make([]*http.Response, 0, 5)
	for range 5 {
		responses = append(responses, jsonResponse(503, `{"error":"down"}`))
	}
	httpClient := &fakeHttpClient{t: t, responses: responses}
	client := newTestClient(t, httpClient)

	for range 5 {
		_, err := client.GetSummary(t.Context(), testTenant)
		require.ErrorIs(t, err, e.ErrTransientNetwork)
	}

	// The breaker is open: the request never reaches the transport,
	// but the error still reads as transient so the retry executor
	// backs off rather than giving up.
	_, err := client.GetSummary(t.Context(), testTenant)
	require.ErrorIs(t, err, e.ErrTransientNetwork)
	require.Len(t, httpClient.requests, 5)
}

func TestClientTerminalErrorsDoNotTripTheBreaker(t *testing.T) {
	t.Parallel()

	responses := make([]*http.Response, 0, 7)
	for range 6 {
		responses = append(responses, jsonResponse(404, `{"error":"missing"}`))
	}
	responses = append(responses, jsonResponse(200, `{"guestCount":0,"confirmedCount":0,"declinedCount":0,"pendingCount":0,"expectedHeads":0,"vendorCount":0,"bookedVendors":0,"quotedCents":0,"generatedAt":"2026-03-14T15:09:26Z"}`))
	httpClient := &fakeHttpClient{t: t, responses: responses}
	client := newTestClient(t, httpClient)

	for range 6 {
		_, err := client.GetSummary(t.Context(), testTenant)
		require.ErrorIs(t, err, domain.ErrNotFound)
	}

	_, err := client.GetSummary(t.Context(), testTenant)
	require.NoError(t, err, "terminal errors should not have opened the breaker")
	require.Len(t, httpClient.requests, 7)
}
