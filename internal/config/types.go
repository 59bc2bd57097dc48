package config

type Credentials struct {
	User     string `hcl:"user"`
	Password string `hcl:"password"`
}

type Host struct {
	Hostname string `hcl:"hostname"`
	Port     string `hcl:"port"`
}

type MySQL struct {
	Credentials          `hcl:",squash"`
	Host                 `hcl:",squash"`
	AllowNativePasswords bool   `hcl:"allowNativePasswords"`
	Database             string `hcl:"database"`
}

type Amqp struct {
	Credentials `hcl:",squash"`
	Host        `hcl:",squash"`
	VirtualHost string `hcl:"virtualHost"`
}

type MongoDB struct {
	Credentials             `hcl:",squash"`
	Host                    `hcl:",squash"`
	Database                string `hcl:"database"`
	ReplicaSetName          string `hcl:"replicaSetName"`
	AuthenticationDatabase  string `hcl:"authenticationDatabase"`
	AuthenticationMechanism string `hcl:"authenticationMechanism"`
	GssapiServiceName       string `hcl:"gssapiServiceName"`
	URL                     string `hcl:"url"`
}

type Redis struct {
	Host     `hcl:",squash"`
	Password string `hcl:"password"`
}

type SMTP struct {
	Host `hcl:",squash"`
}

type HTTP struct {
	Host         `hcl:",squash"`
	Method       string            `hcl:"method"`
	Scheme       string            `hcl:"scheme"`
	Path         string            `hcl:"path"`
	Payload      string            `hcl:"payload"`
	Headers      map[string]string `hcl:"headers"`
	Timeout      string            `hcl:"timeout"`
	ExpectStatus string            `hcl:"expectStatus"`
}

// Probe configures a native protocol check. Exactly one protocol block must
// be set.
type Probe struct {
	Name       string   `hcl:",key"`
	Timeout    string   `hcl:"timeout"`
	Filesystem string   `hcl:"filesystem"`
	MySQL      *MySQL   `hcl:"mysql"`
	Redis      *Redis   `hcl:"redis"`
	MongoDB    *MongoDB `hcl:"mongodb"`
	Amqp       *Amqp    `hcl:"amqp"`
	HTTP       *HTTP    `hcl:"http"`
	SMTP       *SMTP    `hcl:"smtp"`
}

// Script configures a scripted check. Either File or Source must be set.
type Script struct {
	Name         string                 `hcl:",key"`
	File         string                 `hcl:"file"`
	Source       string                 `hcl:"source"`
	Capabilities []string               `hcl:"capabilities"`
	Timeout      string                 `hcl:"timeout"`
	MaxSteps     int                    `hcl:"maxSteps"`
	Context      map[string]interface{} `hcl:"context"`
}

type Endpoint struct {
	Name    string                 `hcl:",key"`
	Workers int                    `hcl:"workers"`
	Context map[string]interface{} `hcl:"context"`
	Scripts []Script               `hcl:"script"`
	Probes  []Probe                `hcl:"probe"`
}

type Scheduler struct {
	Interval string `hcl:"interval"`
	Timeout  string `hcl:"timeout"`
	Workers  int    `hcl:"workers"`
}

type Bridge struct {
	Timeout       string `hcl:"timeout"`
	ScriptTimeout string `hcl:"scriptTimeout"`
	MaxSteps      int    `hcl:"maxSteps"`
}

type Remote struct {
	Protocol              string `hcl:",key"`
	KnownHostsFile        string `hcl:"knownHostsFile"`
	InsecureIgnoreHostKey bool   `hcl:"insecureIgnoreHostKey"`
	Timeout               string `hcl:"timeout"`
	Default               bool   `hcl:"default"`
}

type MemorySink struct {
	History int `hcl:"history"`
}

type PostgresSink struct {
	URL   string `hcl:"url"`
	Table string `hcl:"table"`
}

type Sink struct {
	Memory   *MemorySink   `hcl:"memory"`
	Postgres *PostgresSink `hcl:"postgres"`
}

type Webhook struct {
	URL      string `hcl:"url"`
	Template string `hcl:"template"`
	Timeout  string `hcl:"timeout"`
}

type AmqpPublisher struct {
	URL        string `hcl:"url"`
	Exchange   string `hcl:"exchange"`
	RoutingKey string `hcl:"routingKey"`
}

type Notify struct {
	Webhooks []Webhook       `hcl:"webhook"`
	Amqp     []AmqpPublisher `hcl:"amqp"`
}

type Server struct {
	Listen string `hcl:"listen"`
}

// Agent is the merged content of all configuration files.
type Agent struct {
	Scheduler *Scheduler `hcl:"scheduler"`
	Bridge    *Bridge    `hcl:"bridge"`
	Sink      *Sink      `hcl:"sink"`
	Notify    *Notify    `hcl:"notify"`
	Server    *Server    `hcl:"server"`
	Remotes   []Remote   `hcl:"remote"`
	Scripts   []Script   `hcl:"script"`
	Probes    []Probe    `hcl:"probe"`
	Endpoints []Endpoint `hcl:"endpoint"`
}
