package kv

import (
	"context"

	"github.com/stretchr/testify/suite"
)

// RepositorySuite checks the Repository contract. Each backend test plugs in
// its own constructor.
type RepositorySuite struct {
	suite.Suite
	newRepo func() Repository
	repo    Repository
	ctx     context.Context
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.newRepo()
}

func (s *RepositorySuite) TestSetThenGet() {
	s.Require().NoError(s.repo.Set(s.ctx, "webkech:session", []byte(`{"id":"1"}`)))

	v, err := s.repo.Get(s.ctx, "webkech:session")
	s.Require().NoError(err)
	s.Equal([]byte(`{"id":"1"}`), v)
}

func (s *RepositorySuite) TestGetMissing() {
	v, err := s.repo.Get(s.ctx, "webkech:absent")
	s.ErrorIs(err, ErrNotFound)
	s.Nil(v)
}

func (s *RepositorySuite) TestSetOverwrites() {
	s.Require().NoError(s.repo.Set(s.ctx, "k", []byte("old")))
	s.Require().NoError(s.repo.Set(s.ctx, "k", []byte("new")))

	v, err := s.repo.Get(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal([]byte("new"), v)
}

func (s *RepositorySuite) TestDeleteIsIdempotent() {
	s.Require().NoError(s.repo.Set(s.ctx, "k", []byte("v")))
	s.Require().NoError(s.repo.Delete(s.ctx, "k"))

	_, err := s.repo.Get(s.ctx, "k")
	s.ErrorIs(err, ErrNotFound)

	s.NoError(s.repo.Delete(s.ctx, "k"))
}

func (s *RepositorySuite) TestSetBatchWritesAllKeys() {
	err := s.repo.SetBatch(s.ctx,
		Entry{Key: "webkech:accounts", Value: []byte(`[]`)},
		Entry{Key: "webkech:credentials", Value: []byte(`[]`)},
		Entry{Key: "webkech:session", Value: []byte(`{}`)},
	)
	s.Require().NoError(err)

	for key, want := range map[string]string{
		"webkech:accounts":    `[]`,
		"webkech:credentials": `[]`,
		"webkech:session":     `{}`,
	} {
		v, err := s.repo.Get(s.ctx, key)
		s.Require().NoError(err, key)
		s.Equal(want, string(v), key)
	}
}

func (s *RepositorySuite) TestSetBatchLastWriteWins() {
	err := s.repo.SetBatch(s.ctx,
		Entry{Key: "k", Value: []byte("first")},
		Entry{Key: "k", Value: []byte("second")},
	)
	s.Require().NoError(err)

	v, err := s.repo.Get(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal("second", string(v))
}

func (s *RepositorySuite) TestNamespacesAreIndependent() {
	s.Require().NoError(s.repo.Set(s.ctx, "a:session", []byte("A")))
	s.Require().NoError(s.repo.Set(s.ctx, "b:session", []byte("B")))
	s.Require().NoError(s.repo.Delete(s.ctx, "a:session"))

	v, err := s.repo.Get(s.ctx, "b:session")
	s.Require().NoError(err)
	s.Equal("B", string(v))
}
