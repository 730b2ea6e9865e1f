// Package store 持久化 TeslaMate API 地址与令牌
package store

import (
	"context"
	"fmt"
)

// 存储键
const (
	KeyAPIURL   = "teslamate_api_url"
	KeyAPIToken = "teslamate_api_token"
)

// DefaultAPIURL 未设置地址时的回退值
const DefaultAPIURL = "http://teslamateapi.apps.home.tomaskral.eu"

// Backend 键值存储后端
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Store API 配置存储
type Store struct {
	backend    Backend
	defaultURL string
}

// New 创建配置存储，defaultURL 为空时使用 DefaultAPIURL
func New(backend Backend, defaultURL string) *Store {
	if defaultURL == "" {
		defaultURL = DefaultAPIURL
	}
	return &Store{backend: backend, defaultURL: defaultURL}
}

// APIURL 读取 API 地址，未设置时返回默认值
func (s *Store) APIURL(ctx context.Context) (string, error) {
	v, ok, err := s.backend.Get(ctx, KeyAPIURL)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", KeyAPIURL, err)
	}
	if !ok || v == "" {
		return s.defaultURL, nil
	}
	return v, nil
}

// SetAPIURL 保存 API 地址
func (s *Store) SetAPIURL(ctx context.Context, url string) error {
	if err := s.backend.Set(ctx, KeyAPIURL, url); err != nil {
		return fmt.Errorf("set %s: %w", KeyAPIURL, err)
	}
	return nil
}

// APIToken 读取令牌，未设置时返回空串
func (s *Store) APIToken(ctx context.Context) (string, error) {
	v, _, err := s.backend.Get(ctx, KeyAPIToken)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", KeyAPIToken, err)
	}
	return v, nil
}

// SetAPIToken 保存令牌，空串表示清除
func (s *Store) SetAPIToken(ctx context.Context, token string) error {
	if err := s.backend.Set(ctx, KeyAPIToken, token); err != nil {
		return fmt.Errorf("set %s: %w", KeyAPIToken, err)
	}
	return nil
}

// HasToken 是否已配置令牌
func (s *Store) HasToken(ctx context.Context) (bool, error) {
	token, err := s.APIToken(ctx)
	return token != "", err
}
