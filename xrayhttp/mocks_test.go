package xrayhttp

import (
	"net/http"

	"github.com/jmktam/xraykit/xray"
	"github.com/stretchr/testify/mock"
)

type mockRequestAttributes struct {
	mock.Mock
}

func (m *mockRequestAttributes) RequestAttributes(r *http.Request) (map[string]interface{}, error) {
	arguments := m.Called(r)
	attributes, _ := arguments.Get(0).(map[string]interface{})
	return attributes, arguments.Error(1)
}

type mockResponseAttributes struct {
	mock.Mock
}

func (m *mockResponseAttributes) PopulateWithResponse(e xray.Entity, response *http.Response) error {
	return m.Called(e, response).Error(0)
}

// roundTripperFunc adapts a function to http.RoundTripper
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
