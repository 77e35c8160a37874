//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const repoRootRel = ".."
const mainPkgRel = "./cmd/formatter"

const mqttPort = nat.Port("1883/tcp")

func TestSmoke_UplinkToEnvelope(t *testing.T) {
	repoRoot := repoRootPath(t)
	host, port := startMosquitto(t)

	bin := buildBinary(t, repoRoot)
	addr := pickFreeAddr(t)

	cmd := exec.Command(bin)
	cmd.Env = append(os.Environ(),
		"APP_ENV=dev",
		"LOG_LEVEL=debug",
		"HTTP_ADDR="+addr,
		"MQTT_BROKER="+host,
		"MQTT_PORT="+port,
		"MQTT_UPLINK_TOPIC=lora/+/uplink",
		"MQTT_OUTPUT_TOPIC=lora/formatted",
		"DEVICE_PROFILE=devaddr",
		"SQLITE_PATH="+filepath.Join(t.TempDir(), "lorasense.db"),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("start formatter: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})

	client := &http.Client{Timeout: 2 * time.Second}
	waitForMQTT(t, client, "http://"+addr+"/healthz", 15*time.Second)

	broker := connectBroker(t, host, port)
	received := make(chan string, 8)
	tok := broker.Subscribe("lora/formatted", 1, func(_ paho.Client, m paho.Message) {
		received <- string(m.Payload())
	})
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	uplink := `{"payload":"A1000A08006400C8","rawdata":{"devaddr":"260BAABBCCDD"}}`
	tok = broker.Publish("lora/node1/uplink", 1, false, uplink)
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("publish: %v", tok.Error())
	}

	var got []string
	timeout := time.After(10 * time.Second)
	for len(got) < 2 {
		select {
		case msg := <-received:
			got = append(got, msg)
		case <-timeout:
			t.Fatalf("received %d envelopes, want 2", len(got))
		}
	}
	for i, want := range []string{`"Temperature:AABBCCDD":1}`, `"Temperature:AABBCCDD":2}`} {
		if !strings.Contains(got[i], want) {
			t.Errorf("envelope %d = %s, want %s", i, got[i], want)
		}
	}

	tok = broker.Publish("lora/node1/uplink", 1, false, `{"payload":"A0090064","rawdata":{"devaddr":"AABBCCDD"}}`)
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("publish: %v", tok.Error())
	}
	waitForDeadLetter(t, client, "http://"+addr+"/api/v1/deadletters", 5*time.Second)

	stopServer(t, cmd)
}

func startMosquitto(t *testing.T) (string, string) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2",
		ExposedPorts: []string{string(mqttPort)},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort(mqttPort).WithStartupTimeout(30 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mosquitto container: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, mqttPort)
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return host, mapped.Port()
}

func connectBroker(t *testing.T, host, port string) paho.Client {
	t.Helper()
	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID("lorasense-e2e")
	c := paho.NewClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("connect test client: %v", tok.Error())
	}
	t.Cleanup(func() { c.Disconnect(250) })
	return c
}

func repoRootPath(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	repo := filepath.Clean(filepath.Join(wd, repoRootRel))
	if _, err := os.Stat(filepath.Join(repo, "go.mod")); err != nil {
		t.Fatalf("repo root %q does not contain go.mod: %v", repo, err)
	}
	return repo
}

func buildBinary(t *testing.T, repoRoot string) string {
	t.Helper()

	out := filepath.Join(t.TempDir(), "lorasense-formatter")
	build := exec.Command("go", "build", "-o", out, mainPkgRel)
	build.Dir = repoRoot
	build.Env = os.Environ()

	b, err := build.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(b))
	}
	return out
}

func pickFreeAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen :0: %v", err)
	}
	defer ln.Close()
	return ln.Addr().String()
}

// waitForMQTT polls /healthz until the formatter reports a broker
// connection.
func waitForMQTT(t *testing.T, client *http.Client, url string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			var body map[string]string
			decErr := json.NewDecoder(resp.Body).Decode(&body)
			_ = resp.Body.Close()
			if decErr == nil && resp.StatusCode == http.StatusOK && body["mqtt"] == "connected" {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("formatter not connected after %s: %s", timeout, url)
}

func waitForDeadLetter(t *testing.T, client *http.Client, url string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			var items []map[string]any
			decErr := json.NewDecoder(resp.Body).Decode(&items)
			_ = resp.Body.Close()
			if decErr == nil && len(items) == 1 && items[0]["reason"] == "unknown_measurement_type" {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("dead letter not recorded after %s", timeout)
}

func stopServer(t *testing.T, cmd *exec.Cmd) {
	t.Helper()

	_ = cmd.Process.Signal(syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		t.Fatalf("formatter did not exit in time")
	case err := <-done:
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				t.Fatalf("formatter exited non-zero: %v", err)
			}
			t.Fatalf("formatter wait error: %v", err)
		}
	}
}
