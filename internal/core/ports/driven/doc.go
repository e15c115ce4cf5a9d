// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - StandardStore: Standards, versions, and changes persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, ingestion is disabled.
//   - SearchIndex: Semantic search over version content. Without it, search is keyword-only.
//   - Fetcher: Retrieves candidate documents. Without one, only manual ingestion works.
//   - LLMService: Human-readable change descriptions. Without it, summaries stay structured-only.
//   - SchedulerStore: Task state persistence. Without it, the scheduler cannot run.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
