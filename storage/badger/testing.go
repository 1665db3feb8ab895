// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import "errors"

// Repositories bundles every repository sharing one backend.
type Repositories struct {
	Corpus   *CorpusRepository
	Review   *ReviewRepository
	Memory   *MemoryRepository
	Feedback *FeedbackRepository
	Manifest *ManifestRepository
}

// OpenRepositories creates all repositories on backend.
func OpenRepositories(backend *Backend) (*Repositories, error) {
	repos := &Repositories{Manifest: NewManifestRepository(backend)}
	var err error

	if repos.Corpus, err = NewCorpusRepository(backend); err != nil {
		return nil, err
	}
	if repos.Feedback, err = NewFeedbackRepository(backend); err != nil {
		repos.Close()
		return nil, err
	}
	if repos.Review, err = NewReviewRepository(backend, repos.Corpus, repos.Feedback); err != nil {
		repos.Close()
		return nil, err
	}
	if repos.Memory, err = NewMemoryRepository(backend); err != nil {
		repos.Close()
		return nil, err
	}
	return repos, nil
}

// Close releases every opened repository. The backend stays open.
func (r *Repositories) Close() error {
	var errs []error
	if r.Memory != nil {
		errs = append(errs, r.Memory.Close())
	}
	if r.Review != nil {
		errs = append(errs, r.Review.Close())
	}
	if r.Feedback != nil {
		errs = append(errs, r.Feedback.Close())
	}
	if r.Corpus != nil {
		errs = append(errs, r.Corpus.Close())
	}
	return errors.Join(errs...)
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must close the repositories and then the backend when done.
func NewMemoryRepositories() (*Repositories, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	repos, err := OpenRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return repos, backend, nil
}
