package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/siherrmann/agesearch"
	"github.com/siherrmann/agesearch/core/lexical"
	"github.com/siherrmann/agesearch/core/pipeline"
	"github.com/siherrmann/agesearch/database"
	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "AGESEARCH"
	configName = "agesearch"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agesearch",
	Short: "Hybrid lexical, semantic and graph constrained search on PostgreSQL.",
	Long: `agesearch fuses full text or BM25 ranking with pgvector similarity using
reciprocal rank fusion, optionally restricted to label subtrees or graph
neighbourhoods stored in Apache AGE.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./agesearch.yaml or $HOME/agesearch.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("graph", model.DefaultGraphConfig().GraphName, "Apache AGE graph name")
	rootCmd.PersistentFlags().Int("dim", pipeline.DefaultDimension, "embedding dimension of the docs table")
	rootCmd.PersistentFlags().Bool("neo4j", false, "use Neo4j (NEO4J_* environment) as graph backend")
	rootCmd.PersistentFlags().String("bleve", "", "path of a bleve index used as scoring lexical source")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("graph.name", rootCmd.PersistentFlags().Lookup("graph"))
	_ = viper.BindPFlag("embedding.dim", rootCmd.PersistentFlags().Lookup("dim"))
	_ = viper.BindPFlag("graph.neo4j", rootCmd.PersistentFlags().Lookup("neo4j"))
	_ = viper.BindPFlag("lexical.bleve", rootCmd.PersistentFlags().Lookup("bleve"))

	viper.SetDefault("graph.search_path", model.DefaultGraphConfig().SearchPath)
	viper.SetDefault("db.schema", "public")
	viper.SetDefault("db.sslmode", "disable")
}

// initConfig reads the config file and AGESEARCH_ prefixed environment variables.
// AGESEARCH_DB_HOST maps to db.host.
func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(configName)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Error reading config file:", err)
	}
}

// databaseConfig builds the connection settings from viper.
// Without db.host it falls back to the DB_* environment variables.
func databaseConfig() (*helper.DatabaseConfiguration, error) {
	if viper.GetString("db.host") == "" {
		return helper.NewDatabaseConfiguration()
	}

	return &helper.DatabaseConfiguration{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Database: viper.GetString("db.database"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Schema:   viper.GetString("db.schema"),
		SSLMode:  viper.GetString("db.sslmode"),
	}, nil
}

func graphConfig() model.GraphConfig {
	return model.GraphConfig{
		GraphName:  viper.GetString("graph.name"),
		SearchPath: viper.GetString("graph.search_path"),
	}
}

// openAgeSearch connects with the configured settings.
// graph.neo4j swaps the graph backend, lexical.bleve adds the bleve index.
func openAgeSearch() (*agesearch.AgeSearch, error) {
	config, err := databaseConfig()
	if err != nil {
		return nil, err
	}

	a, err := agesearch.NewAgeSearch(config, graphConfig(), viper.GetInt("embedding.dim"))
	if err != nil {
		return nil, err
	}

	if viper.GetBool("graph.neo4j") {
		err = useNeo4j(a)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	if path := viper.GetString("lexical.bleve"); path != "" {
		index, err := lexical.NewBleveIndex(path)
		if err != nil {
			a.Close()
			return nil, helper.NewError("open bleve index", err)
		}
		a.UseLexicalIndex(index)
	}

	return a, nil
}

func useNeo4j(a *agesearch.AgeSearch) error {
	neo4jConfig, err := helper.NewNeo4jConfiguration()
	if err != nil {
		return err
	}

	handler, err := database.NewNeo4jGraphHandler(neo4jConfig)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = handler.VerifyConnectivity(ctx)
	if err != nil {
		handler.Close(ctx)
		return err
	}

	a.SetGraph(handler)
	return nil
}

// openDatabase connects without initializing any table.
func openDatabase() (*helper.Database, error) {
	config, err := databaseConfig()
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return helper.NewDatabase("agesearch", config, helper.NewLogger(os.Stderr, level))
}

// useEmbedder enables the default embedder unless disabled by --no-embed.
func useEmbedder(cmd *cobra.Command, a *agesearch.AgeSearch, splitter pipeline.SplitFunc) error {
	noEmbed, _ := cmd.Flags().GetBool("no-embed")
	if noEmbed {
		a.SetPipeline(pipeline.NewPipeline(splitter, nil))
		return nil
	}

	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}
	a.SetPipeline(pipeline.NewPipeline(splitter, embedder))
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
