package cmd

import "github.com/spf13/viper"

func settingDefaultConfig() {
	// Enable automatic environment variable binding
	viper.AutomaticEnv()

	// Map environment variables to Viper keys for PostgreSQL
	viper.BindEnv("postgres.host", "POSTGRES_HOST")
	viper.BindEnv("postgres.port", "POSTGRES_PORT")
	viper.BindEnv("postgres.user", "POSTGRES_USER")
	viper.BindEnv("postgres.password", "POSTGRES_PASSWORD")
	viper.BindEnv("postgres.db", "POSTGRES_DB")

	// Map environment variables to Viper keys for MinIO and Server
	viper.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("minio.use_ssl", "MINIO_USE_SSL")
	viper.BindEnv("minio.bucket", "MINIO_BUCKET")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")

	// Map environment variables to Viper keys for RabbitMQ
	viper.BindEnv("amqp.url", "AMQP_URL")

	// Map environment variables to Viper keys for Weaviate, Ollama and Redis
	viper.BindEnv("weaviate.host", "WEAVIATE_HOST")
	viper.BindEnv("weaviate.scheme", "WEAVIATE_SCHEME")
	viper.BindEnv("ollama.url", "OLLAMA_URL")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	// Map environment variables to Viper keys for the retrieval pipeline
	viper.BindEnv("rag.embedding_model", "RAG_EMBEDDING_MODEL")
	viper.BindEnv("rag.generation_model", "RAG_GENERATION_MODEL")

	// Set default values for PostgreSQL
	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("postgres.user", "postgres")
	viper.SetDefault("postgres.password", "postgres")
	viper.SetDefault("postgres.db", "ragcore")

	// Set default values for MinIO and Server
	viper.SetDefault("minio.endpoint", "localhost:9000")
	viper.SetDefault("minio.access_key", "minioadmin")
	viper.SetDefault("minio.secret_key", "minioadmin")
	viper.SetDefault("minio.use_ssl", false)
	viper.SetDefault("minio.bucket", "documents")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.shutdown_timeout", "5s")

	// RabbitMQ is optional; async ingestion is disabled when the URL is empty.
	viper.SetDefault("amqp.url", "")

	viper.SetDefault("weaviate.host", "localhost:8081")
	viper.SetDefault("weaviate.scheme", "http")

	viper.SetDefault("ollama.url", "http://localhost:11434/api")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.history_limit", 50)
	viper.SetDefault("redis.history_ttl", "720h")

	// Set default values for the retrieval pipeline
	viper.SetDefault("rag.embedding_model", "nomic-embed-text")
	viper.SetDefault("rag.generation_model", "llama3.1")
	viper.SetDefault("rag.chunk_size", 1000)
	viper.SetDefault("rag.chunk_overlap", 200)
	viper.SetDefault("rag.top_k", 5)
	viper.SetDefault("rag.embed_batch_size", 32)
	viper.SetDefault("rag.embed_max_retries", 3)
	viper.SetDefault("rag.prompt_budget", 8000)
	viper.SetDefault("rag.history_limit", 10)
	viper.SetDefault("rag.embed_timeout", "30s")
	viper.SetDefault("rag.query_timeout", "10s")
	viper.SetDefault("rag.generate_timeout", "120s")
	viper.SetDefault("rag.serialize_ingest", false)
}
