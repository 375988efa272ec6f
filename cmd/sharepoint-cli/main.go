// Command sharepoint-cli exports list schemas and data from a
// SharePoint site over the Lists SOAP service, as XML or JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	sharepoint "github.com/ox-it/go-sharepoint"
	"github.com/ox-it/go-sharepoint/pkg/fields"
	"github.com/ox-it/go-sharepoint/pkg/lists"
	"github.com/ox-it/go-sharepoint/pkg/soap"
	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

type listFlags []string

func (l *listFlags) String() string { return strings.Join(*l, ",") }

func (l *listFlags) Set(value string) error {
	*l = append(*l, value)
	return nil
}

type config struct {
	SiteURL  string `yaml:"site-url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	NTLM     bool   `yaml:"ntlm"`
}

func main() {
	var names listFlags
	flag.Var(&names, "list", "list title or ID to export (repeatable; default all lists)")
	siteURL := flag.String("site-url", "", "SharePoint site URL")
	username := flag.String("username", "", "username (DOMAIN\\user for NTLM)")
	password := flag.String("password", "", "password (prompted when a username is given without one)")
	ntlm := flag.Bool("ntlm", false, "authenticate with NTLM instead of HTTP basic")
	configPath := flag.String("config", "", "YAML config file supplying site-url and credentials")
	format := flag.String("format", "xml", "output format: xml or json")
	followLookups := flag.Bool("follow-lookups", false, "inline the referenced row under each lookup value (XML only)")
	includeDefs := flag.Bool("include-field-definitions", false, "include field schemas in XML output")
	includeData := flag.Bool("include-list-data", true, "include row data in XML output")
	transclude := flag.Bool("transclude-xml", false, "inline the content of XML file rows (XML only)")
	output := flag.String("output", "", "output file (stdout if empty)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall request deadline")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to read config: %v", err)
	}
	cfg = cfg.merged(config{
		SiteURL:  *siteURL,
		Username: *username,
		Password: *password,
		NTLM:     *ntlm,
	})
	if cfg.SiteURL == "" {
		log.Fatal("A site URL is required (-site-url or config)")
	}
	if cfg.Username != "" && cfg.Password == "" {
		prompt := &survey.Password{Message: fmt.Sprintf("Password for %s:", cfg.Username)}
		if err := survey.AskOne(prompt, &cfg.Password); err != nil {
			log.Fatalf("Failed to read password: %v", err)
		}
	}

	client, err := soap.NewClient(cfg.SiteURL, cfg.httpClient())
	if err != nil {
		log.Fatalf("Invalid site URL: %v", err)
	}
	site := sharepoint.New(client)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var out []byte
	switch *format {
	case "xml":
		opts := lists.RenderOptions{
			XMLOptions:              fields.XMLOptions{FollowLookups: *followLookups},
			IncludeFieldDefinitions: *includeDefs,
			IncludeListData:         *includeData,
			TranscludeXML:           *transclude,
		}
		root, err := site.AsXML(ctx, names, opts)
		if err != nil {
			log.Fatalf("Failed to render site: %v", err)
		}
		out, err = spxml.Marshal(root)
		if err != nil {
			log.Fatalf("Failed to marshal XML: %v", err)
		}
	case "json":
		export, err := exportJSON(ctx, site, names)
		if err != nil {
			log.Fatalf("Failed to export lists: %v", err)
		}
		out, err = json.MarshalIndent(export, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal JSON: %v", err)
		}
	default:
		log.Fatalf("Unknown format %q (want xml or json)", *format)
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Exported to %s\n", *output)
	} else {
		fmt.Println(string(out))
	}
}

func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// merged overlays flag-supplied values on top of the config file;
// flags win wherever both are set.
func (c config) merged(flags config) config {
	if flags.SiteURL != "" {
		c.SiteURL = flags.SiteURL
	}
	if flags.Username != "" {
		c.Username = flags.Username
	}
	if flags.Password != "" {
		c.Password = flags.Password
	}
	if flags.NTLM {
		c.NTLM = true
	}
	return c
}

func (c config) httpClient() *http.Client {
	switch {
	case c.Username == "":
		return nil
	case c.NTLM:
		return soap.NTLMAuth(c.Username, c.Password)
	default:
		return soap.BasicAuth(c.Username, c.Password)
	}
}

// exportJSON decodes every selected list's rows to structured values,
// keyed by list title.
func exportJSON(ctx context.Context, site *sharepoint.Site, names []string) (map[string][]map[string]any, error) {
	var selected []*lists.List
	if len(names) == 0 {
		all, err := site.Lists().All(ctx)
		if err != nil {
			return nil, err
		}
		selected = all
	} else {
		for _, name := range names {
			list, err := site.Lists().Find(ctx, name)
			if err != nil {
				return nil, err
			}
			selected = append(selected, list)
		}
	}

	export := make(map[string][]map[string]any, len(selected))
	for _, list := range selected {
		rows, err := list.Rows(ctx)
		if err != nil {
			return nil, fmt.Errorf("rows of %s: %w", list.Title(), err)
		}
		values := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			values = append(values, row.Values(true, nil))
		}
		export[list.Title()] = values
	}
	return export, nil
}
