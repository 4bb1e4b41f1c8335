// Package mocks holds generated gomock doubles for the port interfaces.
package mocks

//go:generate mockgen -destination=mock_prompt_repository.go -package=mocks -mock_names=Repository=MockPromptRepository github.com/mliu/prompthub/internal/port/prompt Repository
//go:generate mockgen -destination=mock_tag_repository.go -package=mocks -mock_names=Repository=MockTagRepository github.com/mliu/prompthub/internal/port/tag Repository
//go:generate mockgen -destination=mock_eventbus.go -package=mocks github.com/mliu/prompthub/internal/port/eventbus EventBus,Subscription
//go:generate mockgen -destination=mock_locker.go -package=mocks github.com/mliu/prompthub/internal/port/locker AdvisoryLocker
//go:generate mockgen -destination=mock_generator.go -package=mocks github.com/mliu/prompthub/internal/port/ai Generator
//go:generate mockgen -destination=mock_cache.go -package=mocks github.com/mliu/prompthub/internal/port/cache Cache
