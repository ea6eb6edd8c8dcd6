package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/diwise/odata-client/internal/pkg/application/config"
	"github.com/diwise/odata-client/pkg/odata/client"
	"github.com/diwise/odata-client/pkg/odata/entities"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	profile    string
	url        string
	username   string
	password   string
	insecure   bool
	debug      bool
}

type keyFlags struct {
	key  string
	keys []string
}

func newRootCommand(version string) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:          appName,
		Short:        "Query and modify entities of an OData service",
		Version:      version,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to a yaml file with service profiles")
	pf.StringVarP(&flags.profile, "profile", "p", "", "name of the profile to use")
	pf.StringVar(&flags.url, "url", "", "service root, overrides the profile and "+config.EnvServiceRoot)
	pf.StringVarP(&flags.username, "user", "u", "", "user name for basic authentication")
	pf.StringVar(&flags.password, "password", "", "password for basic authentication")
	pf.BoolVar(&flags.insecure, "insecure", false, "skip verification of the server certificate")
	pf.BoolVar(&flags.debug, "debug", false, "dump failing requests and responses")

	rootCmd.AddCommand(
		newSetsCommand(flags),
		newGetCommand(flags),
		newCreateCommand(flags),
		newUpdateCommand(flags),
		newDeleteCommand(flags),
	)

	return rootCmd
}

func newSetsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sets",
		Short: "List the entity sets exposed by the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openService(cmd, flags)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, name := range s.Model().EntitySetNames() {
				set, _ := s.Model().EntitySet(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t(%s)\n", name, set.EntityType.QualifiedName(), strings.Join(set.EntityType.Key(), ","))
			}

			return nil
		},
	}
}

func newGetCommand(flags *globalFlags) *cobra.Command {
	kf := &keyFlags{}

	var filter, orderBy, expand, selection string
	var top, skip uint64

	cmd := &cobra.Command{
		Use:   "get <entity set>",
		Short: "Fetch entities and print them as json lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openService(cmd, flags)
			if err != nil {
				return err
			}
			defer s.Close()

			key, err := kf.predicate(false)
			if err != nil {
				return err
			}

			options := []client.QueryOption{}
			if filter != "" {
				options = append(options, client.Filter(filter))
			}
			if orderBy != "" {
				options = append(options, client.OrderBy(splitList(orderBy)...))
			}
			if expand != "" {
				options = append(options, client.Expand(splitList(expand)...))
			}
			if selection != "" {
				options = append(options, client.Select(splitList(selection)...))
			}
			if cmd.Flags().Changed("top") {
				options = append(options, client.Top(top))
			}
			if cmd.Flags().Changed("skip") {
				options = append(options, client.Skip(skip))
			}

			if err = s.BeginQuery(args[0], key, options...); err != nil {
				return err
			}

			result, err := s.Execute(cmd.Context())
			if err != nil {
				return err
			}

			return printEntities(cmd, result)
		},
	}

	kf.register(cmd)
	cmd.Flags().StringVar(&filter, "filter", "", "filter expression")
	cmd.Flags().StringVar(&orderBy, "orderby", "", "comma separated list of properties to order by")
	cmd.Flags().StringVar(&expand, "expand", "", "comma separated list of navigation properties to expand")
	cmd.Flags().StringVar(&selection, "select", "", "comma separated list of properties to return")
	cmd.Flags().Uint64Var(&top, "top", 0, "maximum number of entities to return")
	cmd.Flags().Uint64Var(&skip, "skip", 0, "number of entities to skip")

	return cmd
}

func newCreateCommand(flags *globalFlags) *cobra.Command {
	var assignments []string

	cmd := &cobra.Command{
		Use:   "create <entity set>",
		Short: "Create an entity from property assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openService(cmd, flags)
			if err != nil {
				return err
			}
			defer s.Close()

			e, err := s.New(args[0])
			if err != nil {
				return err
			}

			if err = assign(e, assignments); err != nil {
				return err
			}

			if err = s.AddTo(args[0], e); err != nil {
				return err
			}

			return save(cmd, s, e)
		},
	}

	cmd.Flags().StringArrayVar(&assignments, "set", nil, "property assignment as Name=Value, may be repeated")

	return cmd
}

func newUpdateCommand(flags *globalFlags) *cobra.Command {
	kf := &keyFlags{}
	var assignments []string

	cmd := &cobra.Command{
		Use:   "update <entity set>",
		Short: "Fetch an entity, change it and write it back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(assignments) == 0 {
				return fmt.Errorf("nothing to update, use --set Name=Value")
			}

			s, err := openService(cmd, flags)
			if err != nil {
				return err
			}
			defer s.Close()

			e, err := fetchOne(cmd, s, args[0], kf)
			if err != nil {
				return err
			}

			if err = assign(e, assignments); err != nil {
				return err
			}

			if err = s.UpdateObject(e); err != nil {
				return err
			}

			return save(cmd, s, e)
		},
	}

	kf.register(cmd)
	cmd.Flags().StringArrayVar(&assignments, "set", nil, "property assignment as Name=Value, may be repeated")

	return cmd
}

func newDeleteCommand(flags *globalFlags) *cobra.Command {
	kf := &keyFlags{}

	cmd := &cobra.Command{
		Use:   "delete <entity set>",
		Short: "Delete an entity using its current concurrency token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openService(cmd, flags)
			if err != nil {
				return err
			}
			defer s.Close()

			e, err := fetchOne(cmd, s, args[0], kf)
			if err != nil {
				return err
			}

			if err = s.DeleteObject(e); err != nil {
				return err
			}

			report, err := s.SaveChanges(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d entity deleted\n", report.Applied)
			return nil
		},
	}

	kf.register(cmd)

	return cmd
}

func openService(cmd *cobra.Command, flags *globalFlags) (*client.Service, error) {
	ctx := cmd.Context()

	cfg := &config.Config{}

	if flags.configPath != "" {
		f, err := os.Open(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open configuration: %w", err)
		}
		defer f.Close()

		cfg, err = config.LoadConfiguration(f)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	profile := config.Profile{}
	if len(cfg.Profiles) > 0 || flags.profile != "" {
		var err error
		profile, err = cfg.Profile(flags.profile)
		if err != nil {
			return nil, err
		}
	}

	profile = profile.WithEnvironment(ctx)

	if flags.url != "" {
		profile.URL = flags.url
	}
	if flags.username != "" {
		profile.Username = flags.username
	}
	if flags.password != "" {
		profile.Password = flags.password
	}
	if flags.insecure {
		verify := false
		profile.VerifySSL = &verify
	}

	options, err := profile.ServiceOptions()
	if err != nil {
		return nil, err
	}

	options = append(options, client.Debug(flags.debug))

	logging.GetFromContext(ctx).Debug("opening service", "url", profile.URL, "profile", profile.Name)

	return client.NewService(ctx, profile.URL, options...)
}

func fetchOne(cmd *cobra.Command, s *client.Service, entitySet string, kf *keyFlags) (*entities.Entity, error) {
	key, err := kf.predicate(true)
	if err != nil {
		return nil, err
	}

	if err = s.BeginQuery(entitySet, key); err != nil {
		return nil, err
	}

	result, err := s.Execute(cmd.Context())
	if err != nil {
		return nil, err
	}

	if len(result) != 1 {
		return nil, fmt.Errorf("expected a single entity but the service returned %d", len(result))
	}

	return result[0], nil
}

func save(cmd *cobra.Command, s *client.Service, e *entities.Entity) error {
	report, err := s.SaveChanges(cmd.Context())
	if err != nil {
		return err
	}

	if report.Applied == 0 {
		return fmt.Errorf("no changes were saved")
	}

	return printEntities(cmd, []*entities.Entity{e})
}

func printEntities(cmd *cobra.Command, result []*entities.Entity) error {
	enc := json.NewEncoder(cmd.OutOrStdout())

	for _, e := range result {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}

	return nil
}

func assign(e *entities.Entity, assignments []string) error {
	for _, a := range assignments {
		name, value, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid assignment %q, expected Name=Value", a)
		}

		if err := e.Set(name, value); err != nil {
			return err
		}
	}

	return nil
}

func (kf *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&kf.key, "key", "", "value of the single key property")
	cmd.Flags().StringArrayVar(&kf.keys, "keys", nil, "key property as Name=Value, repeat for each key property")
}

func (kf *keyFlags) predicate(required bool) (client.KeyPredicate, error) {
	if kf.key != "" && len(kf.keys) > 0 {
		return nil, fmt.Errorf("use either --key or --keys, not both")
	}

	if kf.key != "" {
		return client.Key(kf.key), nil
	}

	if len(kf.keys) > 0 {
		values := map[string]any{}
		for _, kv := range kf.keys {
			name, value, ok := strings.Cut(kv, "=")
			if !ok || name == "" {
				return nil, fmt.Errorf("invalid key %q, expected Name=Value", kv)
			}
			values[name] = value
		}
		return client.Keys(values), nil
	}

	if required {
		return nil, fmt.Errorf("a key is required, use --key or --keys")
	}

	return nil, nil
}

func splitList(s string) []string {
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
