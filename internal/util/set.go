/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package util

// Set keeps distinct values in insertion order.
type Set[T comparable] struct {
	seen  map[T]struct{}
	order []T
}

func NewSet[T comparable]() *Set[T] {
	return &Set[T]{seen: make(map[T]struct{})}
}

// Add inserts v and reports whether it was new.
func (s *Set[T]) Add(v T) bool {
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

func (s *Set[T]) Has(v T) bool {
	_, ok := s.seen[v]
	return ok
}

func (s *Set[T]) Len() int {
	return len(s.order)
}

// Values returns a copy of the members in insertion order.
func (s *Set[T]) Values() []T {
	return append([]T(nil), s.order...)
}
