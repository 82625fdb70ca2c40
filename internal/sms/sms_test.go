package sms

import (
	"context"
	"errors"
	"testing"

	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	calls []*openapi.CreateMessageParams
	sid   string
	err   error
}

func (f *fakeMessages) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	sid := f.sid
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0470 12 34 56", "+32470123456", false},
		{"+32 470 12 34 56", "+32470123456", false},
		{"+33 6 12 34 56 78", "+33612345678", false},
		{"12", "", true},
		{"not a phone", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in, "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTwilioSend(t *testing.T) {
	api := &fakeMessages{sid: "SM42"}
	s := newTwilioService(api, "+3220000000", "BE")

	sid, err := s.Send(context.Background(), "0470123456", "hello")
	require.NoError(t, err)
	assert.Equal(t, "SM42", sid)

	require.Len(t, api.calls, 1)
	p := api.calls[0]
	require.NotNil(t, p.To)
	assert.Equal(t, "+32470123456", *p.To)
	assert.Equal(t, "+3220000000", *p.From)
	assert.Equal(t, "hello", *p.Body)
}

func TestTwilioSend_APIError(t *testing.T) {
	api := &fakeMessages{err: &twilioclient.TwilioRestError{
		Code:    21211,
		Message: "Invalid 'To' Phone Number",
		Status:  400,
	}}
	s := newTwilioService(api, "+3220000000", "BE")

	_, err := s.Send(context.Background(), "0470123456", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
	assert.Contains(t, err.Error(), "Invalid 'To' Phone Number")
}

func TestTwilioSend_TransportError(t *testing.T) {
	api := &fakeMessages{err: errors.New("connection reset")}
	s := newTwilioService(api, "+3220000000", "BE")

	_, err := s.Send(context.Background(), "0470123456", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestTwilioSend_MissingSid(t *testing.T) {
	s := newTwilioService(&fakeMessages{}, "+3220000000", "BE")

	_, err := s.Send(context.Background(), "0470123456", "hello")
	assert.Error(t, err)
}

func TestTwilioSend_InvalidNumberSkipsRequest(t *testing.T) {
	api := &fakeMessages{sid: "SM1"}
	s := newTwilioService(api, "+3220000000", "BE")

	_, err := s.Send(context.Background(), "abc", "hello")
	assert.Error(t, err)
	assert.Empty(t, api.calls)
}

func TestTwilioSend_CanceledContext(t *testing.T) {
	api := &fakeMessages{sid: "SM1"}
	s := newTwilioService(api, "+3220000000", "BE")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Send(ctx, "0470123456", "hello")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.calls)
}
