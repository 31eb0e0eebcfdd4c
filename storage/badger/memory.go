package badger

import "github.com/poiesic/gleaner/storage"

// NewMemoryChunkRepository opens an in-memory backend with a chunk
// repository on top. The caller closes the repository, then the backend.
func NewMemoryChunkRepository() (storage.ChunkRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}
	repo, err := NewChunkRepository(backend)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	return repo, backend, nil
}
