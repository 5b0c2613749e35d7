package tracer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Mutators(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Config{CaptureBody: CaptureBodyAll})
	tx := f.tracer.StartTransaction(context.Background())

	tx.Context().Request().
		WithMethod("POST").
		WithHTTPVersion("1.1").
		WithProtocol("https").
		WithHostname("shop.example").
		WithPort(8443).
		WithPathname("/orders").
		WithSearch("page=2").
		WithFullURL("https://shop.example:8443/orders?page=2").
		AddHeader("Accept", "text/html", "application/json").
		AddHeader("Accept", "*/*").
		AddCookie("session", "abc").
		WithSocket("10.0.0.1:5555", true)
	tx.Context().Response().WithStatusCode(201).WithHeadersSent(true).WithFinished(true).AddHeader("X-Id", "7")
	tx.End()

	ev := f.reporter.all()[0]
	req := ev.Context.Request
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "1.1", req.HTTPVersion)
	assert.Equal(t, URL{
		Protocol: "https", Hostname: "shop.example", Port: 8443,
		Pathname: "/orders", Search: "page=2", Full: "https://shop.example:8443/orders?page=2",
	}, req.URL)
	assert.Equal(t, []string{"text/html", "application/json", "*/*"}, req.Headers["Accept"])
	assert.Equal(t, []string{"abc"}, req.Cookies["session"])
	assert.Equal(t, Socket{RemoteAddress: "10.0.0.1:5555", Encrypted: true}, req.Socket)

	resp := ev.Context.Response
	assert.Equal(t, 201, resp.StatusCode)
	assert.True(t, resp.HeadersSent)
	assert.True(t, resp.Finished)
	assert.Equal(t, []string{"7"}, resp.Headers["X-Id"])
}

func TestRequest_BodyBuffer(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Config{CaptureBody: CaptureBodyAll, MaxBodySize: 8})
	tx := f.tracer.StartTransaction(context.Background())
	req := tx.Context().Request()

	assert.Equal(t, 0, req.AppendBody([]byte("ignored")), "nothing kept before buffering starts")
	require.True(t, req.WithBodyBuffer())
	assert.False(t, req.WithBodyBuffer(), "decision already made")
	assert.Equal(t, 5, req.AppendBody([]byte("hello")))
	assert.Equal(t, 3, req.AppendBody([]byte(" world")))
	assert.Equal(t, 0, req.AppendBody([]byte("!")))
	assert.Equal(t, "hello wo", req.Body())
	assert.Equal(t, BodyBuffered, req.BodyCapture())

	tx.End()
	ev := f.reporter.all()[0]
	assert.Equal(t, "hello wo", ev.Context.Request.Body)
	assert.True(t, ev.Context.Request.BodyTruncated)
}

func TestRequest_RedactBody(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Config{CaptureBody: CaptureBodyAll})
	tx := f.tracer.StartTransaction(context.Background())
	req := tx.Context().Request()

	req.WithBodyBuffer()
	req.AppendBody([]byte("secret"))
	req.RedactBody()
	tx.End()

	ev := f.reporter.all()[0]
	assert.Equal(t, BodyRedacted, ev.Context.Request.BodyCapture)
	assert.Equal(t, RedactedBody, ev.Context.Request.Body)
}

func TestSnapshot_CaptureBodyErrorsMode(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		mode     string
		failed   bool
		wantBody string
		wantForm bool
	}{
		{"errors mode, success", CaptureBodyErrors, false, RedactedBody, false},
		{"errors mode, failure", CaptureBodyErrors, true, `{"a":1}`, true},
		{"transactions mode", CaptureBodyTransactions, false, `{"a":1}`, true},
		{"all mode", CaptureBodyAll, false, `{"a":1}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, Config{CaptureBody: tc.mode})
			tx := f.tracer.StartTransaction(context.Background())
			req := tx.Context().Request()
			req.WithBodyBuffer()
			req.AppendBody([]byte(`{"a":1}`))
			req.AddFormURLEncodedParameters("q", "1")
			if tc.failed {
				tx.CaptureException(assert.AnError)
			}
			tx.End()

			ev := f.reporter.all()[0]
			assert.Equal(t, tc.wantBody, ev.Context.Request.Body)
			assert.Equal(t, tc.wantForm, ev.Context.Request.FormParameters != nil)
		})
	}
}

func TestRequest_FormParameters(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Config{CaptureBody: CaptureBodyAll})
	tx := f.tracer.StartTransaction(context.Background())
	req := tx.Context().Request()

	req.AddFormURLEncodedParameters("tag", "a", "b")
	req.AddFormURLEncodedParameters("tag", "c")
	req.AddFormURLEncodedParameters("empty")
	req.RedactBody()

	params := req.FormParameters()
	assert.Equal(t, map[string][]string{"tag": {"a", "b", "c"}}, params)
	params["tag"][0] = "mutated"
	assert.Equal(t, "a", req.FormParameters()["tag"][0], "getter returns a copy")

	tx.End()
	ev := f.reporter.all()[0]
	assert.Equal(t, BodyRedacted, ev.Context.Request.BodyCapture)
	assert.Equal(t, []string{"a", "b", "c"}, ev.Context.Request.FormParameters["tag"])
}

func TestUser_UsernameSetIfAbsent(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Config{})
	tx := f.tracer.StartTransaction(context.Background())
	user := tx.Context().User()

	assert.False(t, user.WithUsernameIfUnset(""))
	assert.True(t, user.WithUsernameIfUnset("alice"))
	assert.False(t, user.WithUsernameIfUnset("bob"))
	assert.Equal(t, "alice", user.Username())
}

func TestSpan_HasNoContext(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Config{})
	tx := f.tracer.StartTransaction(context.Background())
	span := f.tracer.CreateSpan(tx)

	assert.Nil(t, span.Context())
	assert.NotPanics(t, func() { span.Context().Request().WithMethod("GET") })
	span.End()

	ev := f.reporter.all()[0]
	assert.Equal(t, KindSpan, ev.Kind)
	assert.Nil(t, ev.Context)
	assert.Equal(t, tx.ID(), ev.ParentID)
}

func TestEvent_JSONKinds(t *testing.T) {
	t.Parallel()
	b, err := KindSpan.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "span", string(b))
	b, err = BodyBuffered.MarshalText()
	require.NoError(t, err)
	assert.True(t, strings.EqualFold("buffered", string(b)))
}
