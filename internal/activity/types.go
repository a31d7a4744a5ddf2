package activity

// Type is the closed enum of audited event kinds. Every accepted mutation
// appends exactly one record of one of these types.
type Type string

const (
	TypeProjectCreated       Type = "project_created"
	TypeProjectUpdated       Type = "project_updated"
	TypeProjectArchived      Type = "project_archived"
	TypeProjectUnarchived    Type = "project_unarchived"
	TypeProjectDeleted       Type = "project_deleted"
	TypeProjectTransferred   Type = "project_ownership_transferred"
	TypeMemberAdded          Type = "member_added"
	TypeMemberRoleChanged    Type = "member_role_changed"
	TypeMemberRemoved        Type = "member_removed"
	TypeBoardCreated         Type = "board_created"
	TypeBoardUpdated         Type = "board_updated"
	TypeBoardArchived        Type = "board_archived"
	TypeBoardUnarchived      Type = "board_unarchived"
	TypeBoardDeleted         Type = "board_deleted"
	TypeBoardLabelsChanged   Type = "board_labels_changed"
	TypeListCreated          Type = "list_created"
	TypeListUpdated          Type = "list_updated"
	TypeListMoved            Type = "list_moved"
	TypeListArchived         Type = "list_archived"
	TypeListDeleted          Type = "list_deleted"
	TypeCardCreated          Type = "card_created"
	TypeCardUpdated          Type = "card_updated"
	TypeCardMoved            Type = "card_moved"
	TypeCardAssigned         Type = "card_assigned"
	TypeCardUnassigned       Type = "card_unassigned"
	TypeCardWatched          Type = "card_watched"
	TypeCardUnwatched        Type = "card_unwatched"
	TypeCardArchived         Type = "card_archived"
	TypeCardUnarchived       Type = "card_unarchived"
	TypeCardCompleted        Type = "card_completed"
	TypeCardReopened         Type = "card_reopened"
	TypeCardDeleted          Type = "card_deleted"
	TypeCardDueDateChanged   Type = "card_due_date_changed"
	TypeCardLabelsChanged    Type = "card_labels_changed"
	TypeCommentAdded         Type = "comment_added"
	TypeCommentEdited        Type = "comment_edited"
	TypeCommentDeleted       Type = "comment_deleted"
	TypeChecklistItemAdded   Type = "checklist_item_added"
	TypeChecklistItemToggled Type = "checklist_item_toggled"
	TypeChecklistItemDeleted Type = "checklist_item_deleted"
	TypeAttachmentAdded      Type = "attachment_added"
	TypeAttachmentDeleted    Type = "attachment_deleted"
	TypeTimeLogged           Type = "time_logged"
	TypeUserDeactivated      Type = "user_deactivated"
	TypeUserReactivated      Type = "user_reactivated"
	TypeUserRoleChanged      Type = "user_role_changed"
	TypeUserDeleted          Type = "user_deleted"
)
