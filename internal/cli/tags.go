package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/shaiso/dynotag/internal/domain"
)

// TagService — операции с тегами, которые вызывают команды.
type TagService interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
	CreateTag(ctx context.Context, tag domain.Tag) error
	DeleteTag(ctx context.Context, name string) (domain.Tag, error)
}

// NewListCmd создаёт команду вывода всех тегов.
func NewListCmd(serviceFn func() (TagService, error), outputFn func() *Printer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceFn()
			if err != nil {
				return err
			}

			tags, err := svc.ListTags(cmd.Context())
			if err != nil {
				return err
			}
			return outputFn().Tags(tags)
		},
	}
}

// NewCreateCmd создаёт команду создания тега.
func NewCreateCmd(serviceFn func() (TagService, error), outputFn func() *Printer) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME CONTENT",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceFn()
			if err != nil {
				return err
			}

			tag := domain.Tag{Name: args[0], Content: args[1]}
			if err := svc.CreateTag(cmd.Context(), tag); err != nil {
				return err
			}
			return outputFn().Created(tag)
		},
	}
}

// NewDeleteCmd создаёт команду удаления тега по имени.
func NewDeleteCmd(serviceFn func() (TagService, error), outputFn func() *Printer) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a tag by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceFn()
			if err != nil {
				return err
			}

			tag, err := svc.DeleteTag(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return outputFn().Deleted(tag)
		},
	}
}
