/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"fmt"

	"inmyroom/internal/config"
	"inmyroom/internal/storage"
)

// Open builds an editor from the user config: it opens the configured store,
// constructs the editor and loads the saved room. dataDir receives crash
// reports and autosaves.
func Open(ctx context.Context, cfg config.AppConfig, secret, dataDir string) (*Editor, error) {
	store, err := storage.Open(ctx, cfg.Storage, secret)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	e, err := New(OptionsFromConfig(cfg, dataDir), store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if _, err := e.Start(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return e, nil
}
