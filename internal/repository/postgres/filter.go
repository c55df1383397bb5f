package postgres

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/repository"
)

// buildReviewRequestFilter translates a filter into a conjunctive squirrel
// predicate over review_requests (aliased rr). Criteria are combined with
// AND; the tokens of one multi-value criterion are combined with OR through
// IN clauses. Subqueries are built with the default question-mark format;
// the outer builder rewrites all placeholders on final ToSql.
func buildReviewRequestFilter(f repository.ReviewRequestFilter) (sq.Sqlizer, error) {
	conds := sq.And{}

	if visibility := viewerVisibility(f.Viewer); visibility != nil {
		conds = append(conds, visibility)
	}

	if f.Status != domain.StatusAll {
		conds = append(conds, sq.Eq{"rr.status": string(f.Status)})
	}

	if f.RepositoryID != nil {
		conds = append(conds, sq.Eq{"rr.repository_id": *f.RepositoryID})
	}

	if f.ChangeNum != nil {
		conds = append(conds, sq.Eq{"rr.change_num": *f.ChangeNum})
	}

	if f.FromUser != "" {
		sub, args, err := sq.Select("id").
			From("users").
			Where(sq.Eq{"username": f.FromUser}).
			ToSql()
		if err != nil {
			return nil, err
		}

		conds = append(conds, sq.Expr("rr.submitter_id IN ("+sub+")", args...))
	}

	if len(f.ToGroups) > 0 {
		cond, err := targetGroupCond(f.ToGroups)
		if err != nil {
			return nil, err
		}

		conds = append(conds, cond)
	}

	if len(f.ToUsersDirectly) > 0 {
		cond, err := targetPeopleCond(f.ToUsersDirectly)
		if err != nil {
			return nil, err
		}

		conds = append(conds, cond)
	}

	if len(f.ToUsersViaGroups) > 0 {
		cond, err := targetViaGroupsCond(f.ToUsersViaGroups)
		if err != nil {
			return nil, err
		}

		conds = append(conds, cond)
	}

	if len(f.ToUsers) > 0 {
		direct, err := targetPeopleCond(f.ToUsers)
		if err != nil {
			return nil, err
		}

		viaGroups, err := targetViaGroupsCond(f.ToUsers)
		if err != nil {
			return nil, err
		}

		conds = append(conds, sq.Or{direct, viaGroups})
	}

	return conds, nil
}

// viewerVisibility limits a list to what the viewer may see: everything for
// elevated identities, public-or-own for a regular user, public only for
// anonymous callers.
func viewerVisibility(viewer *domain.User) sq.Sqlizer {
	if viewer == nil {
		return sq.Eq{"rr.public": true}
	}

	if viewer.IsSuperuser || viewer.LocalSiteAdmin {
		return nil
	}

	return sq.Or{
		sq.Eq{"rr.public": true},
		sq.Eq{"rr.submitter_id": viewer.ID},
	}
}

func targetGroupCond(groupNames []string) (sq.Sqlizer, error) {
	sub, args, err := sq.Select("tg.review_request_id").
		From("review_request_target_groups tg").
		Join("groups g ON g.id = tg.group_id").
		Where(sq.Eq{"g.name": groupNames}).
		ToSql()
	if err != nil {
		return nil, err
	}

	return sq.Expr("rr.id IN ("+sub+")", args...), nil
}

func targetPeopleCond(usernames []string) (sq.Sqlizer, error) {
	sub, args, err := sq.Select("tp.review_request_id").
		From("review_request_target_people tp").
		Join("users u ON u.id = tp.user_id").
		Where(sq.Eq{"u.username": usernames}).
		ToSql()
	if err != nil {
		return nil, err
	}

	return sq.Expr("rr.id IN ("+sub+")", args...), nil
}

func targetViaGroupsCond(usernames []string) (sq.Sqlizer, error) {
	sub, args, err := sq.Select("tg.review_request_id").
		From("review_request_target_groups tg").
		Join("group_users gu ON gu.group_id = tg.group_id").
		Join("users u ON u.id = gu.user_id").
		Where(sq.Eq{"u.username": usernames}).
		ToSql()
	if err != nil {
		return nil, err
	}

	return sq.Expr("rr.id IN ("+sub+")", args...), nil
}
