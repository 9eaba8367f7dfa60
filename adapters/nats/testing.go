package nats

import (
	"context"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testImage = "nats:latest"
	testPort  = "4222/tcp"
)

type Testing interface {
	require.TestingT
	Context() context.Context
	Logf(format string, args ...any)
	Cleanup(func())
}

// TestServer is a NATS server container living as long as a test.
type TestServer struct {
	URL string
}

// Connector returns a Connector dialing the server.
func (s *TestServer) Connector() Connector { return ConnectURL(s.URL) }

type testServerConfig struct {
	image     string
	name      string
	jetStream bool
}

type TestServerOption func(*testServerConfig)

// WithTestImage overrides the container image.
func WithTestImage(image string) TestServerOption {
	return func(c *testServerConfig) { c.image = image }
}

// WithoutJetStream starts a core-only server; KvStore is unavailable on it.
func WithoutJetStream() TestServerOption {
	return func(c *testServerConfig) { c.jetStream = false }
}

// StartTestServer runs a NATS server for t. JetStream is enabled unless
// WithoutJetStream is given. The container is terminated when t ends.
func StartTestServer(t Testing, opts ...TestServerOption) *TestServer {
	cfg := testServerConfig{image: testImage, name: "xsystem-test", jetStream: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	args := []string{"--name", cfg.name}
	if cfg.jetStream {
		args = append(args, "-js")
	}

	ctx := t.Context()
	c, err := testcontainers.Run(
		ctx, cfg.image,
		testcontainers.WithCmd(args...),
		testcontainers.WithExposedPorts(testPort),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort(testPort),
			wait.ForLog("Server is ready"),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(c); err != nil {
			t.Errorf("terminate nats container: %s", err)
		}
	})

	url, err := c.PortEndpoint(ctx, testPort, "nats")
	require.NoError(t, err)
	t.Logf("nats test server %s at %s (jetstream=%t)", cfg.name, url, cfg.jetStream)
	return &TestServer{URL: url}
}

// NewTestContainer is StartTestServer(t, opts...).Connector().
func NewTestContainer(t Testing, opts ...TestServerOption) Connector {
	return StartTestServer(t, opts...).Connector()
}
