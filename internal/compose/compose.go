// Package compose generates docker-compose definitions for multi-node
// OpenSearch clusters with an attached dashboards container.
package compose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	opensearchImage = "opensearchstaging/opensearch:2.14.0"
	dashboardsImage = "opensearchstaging/opensearch-dashboards:2.14.0"

	clusterName   = "opensearch-cluster"
	networkName   = "opensearch-net"
	adminPassword = "myStrongPassword123!"
	javaOpts      = "OPENSEARCH_JAVA_OPTS=-Xms512m -Xmx512m"

	restPortBase = 9200
	perfPortBase = 9600
	dashPort     = 5601
)

// File is a docker-compose document.
type File struct {
	Version  string             `yaml:"version"`
	Services map[string]Service `yaml:"services"`
	Volumes  map[string]any     `yaml:"volumes"`
	Networks map[string]any     `yaml:"networks"`
}

// Service is one compose service entry.
type Service struct {
	Image         string   `yaml:"image"`
	ContainerName string   `yaml:"container_name"`
	Environment   []string `yaml:"environment,omitempty"`
	Ulimits       *Ulimits `yaml:"ulimits,omitempty"`
	Volumes       []string `yaml:"volumes,omitempty"`
	Ports         []string `yaml:"ports,omitempty"`
	Expose        []string `yaml:"expose,omitempty"`
	Networks      []string `yaml:"networks"`
}

// Ulimits holds the resource limits an OpenSearch node requires.
type Ulimits struct {
	Memlock Ulimit `yaml:"memlock"`
	Nofile  Ulimit `yaml:"nofile"`
}

// Ulimit is a soft/hard limit pair. -1 means unlimited.
type Ulimit struct {
	Soft int `yaml:"soft"`
	Hard int `yaml:"hard"`
}

// NodeName returns the service and container name of node i (1-based).
// It doubles as the node's hostname on the compose network.
func NodeName(i int) string {
	return fmt.Sprintf("opensearch-node%d", i)
}

// nodeList joins all node names for seed-host style settings.
func nodeList(count int) string {
	names := make([]string, count)
	for i := range names {
		names[i] = NodeName(i + 1)
	}
	return strings.Join(names, ",")
}

// nodeLinks renders the OPENSEARCH_HOSTS value: a compact JSON array of
// node URLs.
func nodeLinks(count int) (string, error) {
	links := make([]string, count)
	for i := range links {
		links[i] = fmt.Sprintf("https://%s:%d", NodeName(i+1), restPortBase+i)
	}
	out, err := json.Marshal(links)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Generate builds the compose file for a cluster of count nodes.
func Generate(count int) (*File, error) {
	if count < 1 {
		return nil, fmt.Errorf("node count must be at least 1, got %d", count)
	}

	file := &File{
		Version:  "3",
		Services: make(map[string]Service, count+1),
		Volumes:  make(map[string]any, count),
		Networks: map[string]any{networkName: nil},
	}

	seeds := nodeList(count)
	for i := 1; i <= count; i++ {
		name := NodeName(i)
		file.Services[name] = Service{
			Image:         opensearchImage,
			ContainerName: name,
			Environment: []string{
				"cluster.name=" + clusterName,
				"node.name=" + name,
				"discovery.seed_hosts=" + seeds,
				"cluster.initial_cluster_manager_nodes=" + seeds,
				"bootstrap.memory_lock=true",
				javaOpts,
				"OPENSEARCH_INITIAL_ADMIN_PASSWORD=" + adminPassword,
			},
			Ulimits: &Ulimits{
				Memlock: Ulimit{Soft: -1, Hard: -1},
				Nofile:  Ulimit{Soft: 65536, Hard: 65536},
			},
			Volumes: []string{name + ":/usr/share/opensearch/data"},
			Ports: []string{
				fmt.Sprintf("%d:%d", restPortBase+i-1, restPortBase),
				fmt.Sprintf("%d:%d", perfPortBase+i-1, perfPortBase),
			},
			Networks: []string{networkName},
		}
		file.Volumes[name] = nil
	}

	links, err := nodeLinks(count)
	if err != nil {
		return nil, err
	}
	file.Services["opensearch-dashboards"] = Service{
		Image:         dashboardsImage,
		ContainerName: "opensearch-dashboards",
		Ports:         []string{fmt.Sprintf("%d:%d", dashPort, dashPort)},
		Expose:        []string{fmt.Sprintf("%d", dashPort)},
		Environment:   []string{"OPENSEARCH_HOSTS=" + links},
		Networks:      []string{networkName},
	}

	return file, nil
}

// Render marshals the compose file with two-space indentation.
func Render(file *File) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("failed to render compose file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
