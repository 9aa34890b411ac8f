/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package selection implements the single-selection state machine:
// Unselected or Selected(id), never two items at once.
package selection

import (
	"errors"

	"inmyroom/internal/domain"
	"inmyroom/internal/scene"
)

var ErrNothingSelected = errors.New("nothing selected")

// Hooks are optional callbacks fired on transitions. OnDeselect for the prior
// item always runs before OnSelect for the new one.
type Hooks struct {
	OnSelect   func(id string)
	OnDeselect func(id string)
	OnDelete   func(it domain.Item)
}

type Controller struct {
	sc    *scene.Scene
	hooks Hooks
}

func New(sc *scene.Scene, hooks Hooks) *Controller {
	return &Controller{sc: sc, hooks: hooks}
}

// Current returns the selected id, if any.
func (c *Controller) Current() (string, bool) { return c.sc.Selected() }

// Select moves to Selected(id). Selecting a missing id fails and leaves the
// state unchanged; reselecting the current item is a no-op.
func (c *Controller) Select(id string) error {
	if _, ok := c.sc.Item(id); !ok {
		return scene.ErrNoItem
	}
	prior, had := c.sc.Selected()
	if had && prior == id {
		return nil
	}
	if had {
		c.Deselect()
	}
	if err := c.sc.SetSelected(id); err != nil {
		return err
	}
	if c.hooks.OnSelect != nil {
		c.hooks.OnSelect(id)
	}
	return nil
}

// Deselect moves to Unselected.
func (c *Controller) Deselect() {
	prior, had := c.sc.Selected()
	if !had {
		return
	}
	_ = c.sc.SetSelected("")
	if c.hooks.OnDeselect != nil {
		c.hooks.OnDeselect(prior)
	}
}

// DeleteSelected removes the selected item from the scene and returns it.
func (c *Controller) DeleteSelected() (domain.Item, error) {
	id, ok := c.sc.Selected()
	if !ok {
		return domain.Item{}, ErrNothingSelected
	}
	c.Deselect()
	it, _ := c.sc.RemoveItem(id)
	if c.hooks.OnDelete != nil {
		c.hooks.OnDelete(it)
	}
	return it, nil
}

// ClickEmpty handles a click on bare canvas.
func (c *Controller) ClickEmpty() { c.Deselect() }
