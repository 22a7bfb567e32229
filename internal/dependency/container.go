// Package dependency wires the ragchat services using go.uber.org/dig.
package dependency

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/dig"

	"ragchat/internal/config"
	"ragchat/internal/ingest"
	"ragchat/internal/llm"
	"ragchat/internal/monitor"
	"ragchat/internal/persona"
	"ragchat/internal/render"
	"ragchat/internal/retrieval"
	"ragchat/internal/service"
	"ragchat/internal/session"
	"ragchat/internal/storage"
	"ragchat/internal/tools"
	"ragchat/internal/vectorstore"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg         *config.Config
	session     *session.Session
	client      *llm.Client
	chat        service.ChatService
	tools       *tools.Registry
	vectorStore *vectorstore.QdrantStore
	ingest      *ingest.Pipeline
	serverCheck *monitor.ServerCheck
	loader      *llm.ModelLoader
	ledger      *sql.DB
}

func (c *Container) Config() *config.Config                { return c.cfg }
func (c *Container) Session() *session.Session             { return c.session }
func (c *Container) LLMClient() *llm.Client                { return c.client }
func (c *Container) ChatService() service.ChatService      { return c.chat }
func (c *Container) Tools() *tools.Registry                { return c.tools }
func (c *Container) VectorStore() *vectorstore.QdrantStore { return c.vectorStore }
func (c *Container) Ingest() *ingest.Pipeline              { return c.ingest }
func (c *Container) ServerCheck() *monitor.ServerCheck     { return c.serverCheck }
func (c *Container) ModelLoader() *llm.ModelLoader         { return c.loader }

// Close releases the vector store connection and the ingestion ledger.
func (c *Container) Close() error {
	return errors.Join(c.vectorStore.Close(), c.ledger.Close())
}

// Option adjusts how the container is built.
type Option func(*settings)

type settings struct {
	forceIngest bool
}

// WithForceIngest re-ingests files whose content is unchanged.
func WithForceIngest(force bool) Option {
	return func(s *settings) { s.forceIngest = force }
}

// New builds and wires all services from cfg.
func New(cfg *config.Config, opts ...Option) (*Container, error) {
	var st settings
	for _, o := range opts {
		o(&st)
	}
	return build(cfg, st)
}

func build(cfg *config.Config, st settings, digOpts ...dig.Option) (*Container, error) {
	d := dig.New(digOpts...)

	providers := []any{
		func() *config.Config { return cfg },
		func() settings { return st },
		newSession,
		newLLMClient,
		newDecoder,
		newEmbedder,
		newVectorStore,
		newSQLConnector,
		newToolRegistry,
		newPersonaTable,
		newBuilder,
		render.New,
		newRetriever,
		newChatService,
		newLedgerDB,
		newIngestPipeline,
		newServerCheck,
		newModelLoader,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		sess *session.Session,
		client *llm.Client,
		chat service.ChatService,
		registry *tools.Registry,
		store *vectorstore.QdrantStore,
		pipeline *ingest.Pipeline,
		check *monitor.ServerCheck,
		loader *llm.ModelLoader,
		ledger *sql.DB,
	) {
		result = &Container{
			cfg:         cfg,
			session:     sess,
			client:      client,
			chat:        chat,
			tools:       registry,
			vectorStore: store,
			ingest:      pipeline,
			serverCheck: check,
			loader:      loader,
			ledger:      ledger,
		}
	})
	if err != nil {
		return nil, dig.RootCause(err)
	}
	return result, nil
}

func newSession(cfg *config.Config) *session.Session {
	return session.New(cfg.LLMAPIKey, cfg.LLMModelName)
}

func newLLMClient(cfg *config.Config) (*llm.Client, error) {
	dialect, err := llm.ParseDialect(cfg.LLMDialect)
	if err != nil {
		return nil, err
	}
	client := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, dialect).
		WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout})
	client.GeneratePath = cfg.LLMGeneratePath
	return client, nil
}

func newDecoder(client *llm.Client) (llm.StreamDecoder, error) {
	return llm.NewDecoder(client.Dialect)
}

func newEmbedder(cfg *config.Config) *llm.EmbeddingsClient {
	return llm.NewEmbeddingsClient(cfg.EmbedBaseURL(), cfg.LLMAPIKey, cfg.EmbedModelName, cfg.QdrantVectorSize)
}

func newVectorStore(cfg *config.Config) (*vectorstore.QdrantStore, error) {
	return vectorstore.NewQdrantStore(cfg.VectorURL(), cfg.VectorAPIKey)
}

func newSQLConnector(cfg *config.Config) (*storage.SQLConnector, error) {
	return storage.NewSQLConnector(storage.ConnParams{
		Driver:   cfg.DBDriver,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		SSLMode:  cfg.DBSSLMode,
	})
}

func newToolRegistry(connector *storage.SQLConnector) (*tools.Registry, error) {
	return tools.NewRegistry(tools.NewCommandTool(), tools.NewSQLTool(connector))
}

func newPersonaTable(cfg *config.Config) (*persona.Table, error) {
	if cfg.PersonaFile != "" {
		return persona.LoadTable(cfg.PersonaFile)
	}
	return persona.DefaultTable()
}

func newBuilder(cfg *config.Config, table *persona.Table, registry *tools.Registry) *persona.Builder {
	var declared []openai.Tool
	if cfg.ToolMaxIterations > 0 {
		declared = registry.DescribeAll()
	}
	return persona.NewBuilder(table, persona.Defaults{
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Stream:      cfg.LLMStream,
	}, declared)
}

func newRetriever(cfg *config.Config, client *llm.Client, embedder *llm.EmbeddingsClient, store *vectorstore.QdrantStore) *retrieval.Pipeline {
	return retrieval.NewPipeline(client, embedder, store, retrieval.Options{
		Collection: cfg.CollectionName,
		K:          cfg.RetrieverK,
		Normalize:  cfg.RetrieverNormalize,
		Rerank:     cfg.RetrieverRerank,
	})
}

func newChatService(
	cfg *config.Config,
	builder *persona.Builder,
	client *llm.Client,
	decoder llm.StreamDecoder,
	registry *tools.Registry,
	retriever *retrieval.Pipeline,
	renderer *render.Renderer,
	sess *session.Session,
) service.ChatService {
	return service.NewChatService(service.Deps{
		Builder:   builder,
		Transport: client,
		Decoder:   decoder,
		Tools:     registry,
		Retriever: retriever,
		Renderer:  renderer,
		Session:   sess,
	}, service.Options{
		MaxToolIterations: cfg.ToolMaxIterations,
		ToolTimeout:       cfg.ToolTimeout,
		RetrievalFallback: cfg.RetrieverFallback,
	})
}

func newLedgerDB(cfg *config.Config) (*sql.DB, error) {
	db, err := storage.New(cfg.IngestDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ingestion ledger: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate ingestion ledger: %w", err)
	}
	return db, nil
}

func newIngestPipeline(cfg *config.Config, st settings, embedder *llm.EmbeddingsClient, store *vectorstore.QdrantStore, db *sql.DB) *ingest.Pipeline {
	return ingest.NewPipeline(embedder, store, storage.NewDocumentRepo(db), ingest.Options{
		Collection:     cfg.CollectionName,
		VectorSize:     cfg.QdrantVectorSize,
		Force:          st.forceIngest,
		EmbeddingModel: cfg.EmbedModelName,
	})
}

func newServerCheck(cfg *config.Config, client *llm.Client, sess *session.Session) *monitor.ServerCheck {
	return monitor.NewServerCheck(client, sess, cfg.ServerCheckInterval)
}

func newModelLoader(client *llm.Client) *llm.ModelLoader {
	return llm.NewModelLoader(client)
}
