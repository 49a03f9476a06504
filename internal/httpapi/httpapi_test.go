// v0
// internal/httpapi/httpapi_test.go
package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicoGruemmert/PlantPal/internal/metrics"
	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

type fakeProvider struct {
	plants map[int]PlantStatus
}

func (f *fakeProvider) Plants() []PlantStatus {
	var out []PlantStatus
	for slot := 0; slot < plant.DefaultMaxPlants; slot++ {
		if st, ok := f.plants[slot]; ok {
			out = append(out, st)
		}
	}
	return out
}

func (f *fakeProvider) Plant(slot int) (PlantStatus, bool) {
	st, ok := f.plants[slot]
	return st, ok
}

func (f *fakeProvider) Reconfigure(slot int, p plant.Profile) error {
	st, ok := f.plants[slot]
	if !ok {
		return fmt.Errorf("slot %d: %w", slot, plant.ErrNotFound)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	st.Profile = p
	st.Name = p.Name
	f.plants[slot] = st
	return nil
}

func newTestServer(t *testing.T, ready bool) (*httptest.Server, *fakeProvider) {
	t.Helper()
	provider := &fakeProvider{plants: map[int]PlantStatus{
		0: {Slot: 0, Name: "Basil", Profile: plant.DefaultProfile(), State: plant.State{PlantID: 0, Mood: 88, Recommendation: plant.TooMoist}, Recommendation: plant.TooMoist.String()},
		3: {Slot: 3, Name: "Fern", State: plant.State{PlantID: 3, Mood: 95}},
	}}
	health := &Health{}
	health.SetReady(ready)
	srv := httptest.NewServer(NewRouter(provider, health, metrics.New(), nil, io.Discard))
	t.Cleanup(srv.Close)
	return srv, provider
}

func TestHealthReflectsReadiness(t *testing.T) {
	srv, _ := newTestServer(t, false)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	srv, _ = newTestServer(t, true)
	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListAndGetPlants(t *testing.T) {
	srv, _ := newTestServer(t, true)

	resp, err := http.Get(srv.URL + "/plants")
	require.NoError(t, err)
	defer resp.Body.Close()
	var plants []PlantStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&plants))
	require.Len(t, plants, 2)
	assert.Equal(t, "Basil", plants[0].Name)
	assert.Equal(t, 3, plants[1].Slot)

	resp2, err := http.Get(srv.URL + "/plants/0")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var one PlantStatus
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&one))
	assert.Equal(t, uint8(88), one.State.Mood)
	assert.Equal(t, "TOO_MOIST", one.Recommendation)

	resp3, err := http.Get(srv.URL + "/plants/4")
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)

	resp4, err := http.Get(srv.URL + "/plants/abc")
	require.NoError(t, err)
	resp4.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp4.StatusCode)
}

func put(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestPutProfile(t *testing.T) {
	srv, provider := newTestServer(t, true)
	body := `{"name":"Cactus","temperature":{"target":28,"range":8},"humidity":{"target":20,"range":15},"moisture":{"target":10,"range":10},"light":{"target":90,"range":10}}`

	resp := put(t, srv.URL+"/plants/0/profile", body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cactus", provider.plants[0].Name)

	resp = put(t, srv.URL+"/plants/1/profile", body)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	zero := strings.Replace(body, `"range":8`, `"range":0`, 1)
	resp = put(t, srv.URL+"/plants/0/profile", zero)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = put(t, srv.URL+"/plants/0/profile", `{"colour":"green"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, true)
	resp, err := http.Get(srv.URL + "/plants")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `plantpal_http_requests_total{route="/plants",status="200"} 1`)
}
