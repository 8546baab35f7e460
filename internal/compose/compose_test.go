package compose

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestGenerate_NodeCount verifies the right services, volumes, and network
// are emitted for a three-node cluster.
func TestGenerate_NodeCount(t *testing.T) {
	file, err := Generate(3)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(file.Services) != 4 {
		t.Errorf("expected 3 nodes + dashboards, got %d services", len(file.Services))
	}
	for _, name := range []string{"opensearch-node1", "opensearch-node2", "opensearch-node3", "opensearch-dashboards"} {
		if _, ok := file.Services[name]; !ok {
			t.Errorf("missing service %s", name)
		}
	}
	if len(file.Volumes) != 3 {
		t.Errorf("expected one volume per node, got %d", len(file.Volumes))
	}
	if _, ok := file.Networks["opensearch-net"]; !ok {
		t.Error("missing opensearch-net network")
	}
}

// TestGenerate_PortOffsets verifies host ports advance per node while the
// container ports stay fixed.
func TestGenerate_PortOffsets(t *testing.T) {
	file, err := Generate(2)
	if err != nil {
		t.Fatal(err)
	}

	node2 := file.Services["opensearch-node2"]
	want := []string{"9201:9200", "9601:9600"}
	for i, p := range want {
		if node2.Ports[i] != p {
			t.Errorf("node2 port %d = %s, want %s", i, node2.Ports[i], p)
		}
	}
}

// TestGenerate_SeedHosts verifies every node lists the full cluster in its
// discovery settings.
func TestGenerate_SeedHosts(t *testing.T) {
	file, err := Generate(2)
	if err != nil {
		t.Fatal(err)
	}

	env := strings.Join(file.Services["opensearch-node1"].Environment, "\n")
	if !strings.Contains(env, "discovery.seed_hosts=opensearch-node1,opensearch-node2") {
		t.Errorf("seed hosts missing or wrong:\n%s", env)
	}
	if !strings.Contains(env, "cluster.initial_cluster_manager_nodes=opensearch-node1,opensearch-node2") {
		t.Errorf("initial cluster manager nodes missing or wrong:\n%s", env)
	}
}

// TestGenerate_DashboardLinks verifies OPENSEARCH_HOSTS is a compact JSON
// array of node URLs.
func TestGenerate_DashboardLinks(t *testing.T) {
	file, err := Generate(2)
	if err != nil {
		t.Fatal(err)
	}

	env := file.Services["opensearch-dashboards"].Environment
	want := `OPENSEARCH_HOSTS=["https://opensearch-node1:9200","https://opensearch-node2:9201"]`
	if len(env) != 1 || env[0] != want {
		t.Errorf("dashboard environment = %v, want [%s]", env, want)
	}
}

// TestGenerate_Ulimits verifies memlock is unlimited and nofile raised.
func TestGenerate_Ulimits(t *testing.T) {
	file, err := Generate(1)
	if err != nil {
		t.Fatal(err)
	}

	ul := file.Services["opensearch-node1"].Ulimits
	if ul == nil {
		t.Fatal("node missing ulimits")
	}
	if ul.Memlock.Soft != -1 || ul.Memlock.Hard != -1 {
		t.Errorf("memlock = %+v, want -1/-1", ul.Memlock)
	}
	if ul.Nofile.Soft != 65536 || ul.Nofile.Hard != 65536 {
		t.Errorf("nofile = %+v, want 65536/65536", ul.Nofile)
	}
}

// TestGenerate_RejectsZeroNodes verifies the count is validated.
func TestGenerate_RejectsZeroNodes(t *testing.T) {
	if _, err := Generate(0); err == nil {
		t.Error("expected error for zero nodes")
	}
	if _, err := Generate(-2); err == nil {
		t.Error("expected error for negative nodes")
	}
}

// TestRender_RoundTrips verifies the rendered YAML parses back to the same
// structure.
func TestRender_RoundTrips(t *testing.T) {
	file, err := Generate(2)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Render(file)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var parsed File
	if err := yaml.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("rendered YAML does not parse: %v", err)
	}
	if len(parsed.Services) != 3 {
		t.Errorf("round trip lost services: got %d", len(parsed.Services))
	}
	if parsed.Services["opensearch-node1"].ContainerName != "opensearch-node1" {
		t.Error("round trip lost container_name")
	}
}
