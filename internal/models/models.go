// package models defines the data model for the course-notes bookmarking service
package models

// Model defines the base interface for all persistent models in the bookmarking service.
type Model interface {
	GetID() string   // GetID returns the unique identifier for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle persistence for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the backing store
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update replaces an existing model in the backing store
	Delete(id string) error                    // Delete removes a model from the backing store by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}
