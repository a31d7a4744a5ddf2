package app

import (
	"net/http"
)

// ---------------------------------------------------------------------------
// Projects

func (s *HTTPServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.service.ListProjects(r.Context(), sessionFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, projects)
}

func (s *HTTPServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in ProjectInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := s.service.CreateProject(r.Context(), sessionFrom(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

func (s *HTTPServer) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, members, err := s.service.GetProject(r.Context(), sessionFrom(r), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"project": p, "members": members})
}

func (s *HTTPServer) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var in ProjectInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := s.service.UpdateProject(r.Context(), sessionFrom(r), pathVar(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *HTTPServer) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProject(r.Context(), sessionFrom(r), pathVar(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *HTTPServer) handleArchiveProject(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Archived bool `json:"archived"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.SetProjectArchived(r.Context(), sessionFrom(r), pathVar(r, "id"), in.Archived); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"archived": in.Archived})
}

func (s *HTTPServer) handleTransferProject(w http.ResponseWriter, r *http.Request) {
	var in struct {
		NewOwnerID string `json:"newOwnerId"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.TransferProject(r.Context(), sessionFrom(r), pathVar(r, "id"), in.NewOwnerID); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"ownerId": in.NewOwnerID})
}

func (s *HTTPServer) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var in MemberInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	m, err := s.service.AddMember(r.Context(), sessionFrom(r), pathVar(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, m)
}

func (s *HTTPServer) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Role string `json:"role"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.UpdateMemberRole(r.Context(), sessionFrom(r), pathVar(r, "id"), pathVar(r, "userID"), in.Role); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"role": in.Role})
}

func (s *HTTPServer) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveMember(r.Context(), sessionFrom(r), pathVar(r, "id"), pathVar(r, "userID")); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"removed": true})
}

func (s *HTTPServer) handleProjectActivity(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	records, err := s.service.ProjectActivity(r.Context(), sessionFrom(r), pathVar(r, "id"), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, records)
}

// ---------------------------------------------------------------------------
// Boards and labels

func (s *HTTPServer) handleListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.service.ListBoards(r.Context(), sessionFrom(r), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, boards)
}

func (s *HTTPServer) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ProjectID string `json:"projectId"`
		BoardInput
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	b, err := s.service.CreateBoard(r.Context(), sessionFrom(r), in.ProjectID, in.BoardInput)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, b)
}

func (s *HTTPServer) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	b, lists, cards, err := s.service.GetBoard(r.Context(), sessionFrom(r), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"board": b, "lists": lists, "cards": cards})
}

func (s *HTTPServer) handleUpdateBoard(w http.ResponseWriter, r *http.Request) {
	var in BoardInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.UpdateBoard(r.Context(), sessionFrom(r), pathVar(r, "id"), in); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *HTTPServer) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteBoard(r.Context(), sessionFrom(r), pathVar(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *HTTPServer) handleArchiveBoard(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Archived bool `json:"archived"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.SetBoardArchived(r.Context(), sessionFrom(r), pathVar(r, "id"), in.Archived); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"archived": in.Archived})
}

func (s *HTTPServer) handleListLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := s.service.ListLabels(r.Context(), sessionFrom(r), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, labels)
}

func (s *HTTPServer) handleCreateLabel(w http.ResponseWriter, r *http.Request) {
	var in LabelInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	l, err := s.service.CreateLabel(r.Context(), sessionFrom(r), pathVar(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, l)
}

func (s *HTTPServer) handleUpdateLabel(w http.ResponseWriter, r *http.Request) {
	var in LabelInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.UpdateLabel(r.Context(), sessionFrom(r), pathVar(r, "id"), in); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *HTTPServer) handleDeleteLabel(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteLabel(r.Context(), sessionFrom(r), pathVar(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}

// ---------------------------------------------------------------------------
// Lists

func (s *HTTPServer) handleListLists(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	boardID := pathVar(r, "id")
	_, lists, _, err := s.service.GetBoard(r.Context(), session, boardID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, lists)
}

func (s *HTTPServer) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var in struct {
		BoardID string `json:"boardId"`
		ListInput
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	l, err := s.service.CreateList(r.Context(), sessionFrom(r), in.BoardID, in.ListInput)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, l)
}

func (s *HTTPServer) handleRenameList(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.RenameList(r.Context(), sessionFrom(r), pathVar(r, "id"), in.Name); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *HTTPServer) handleMoveList(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Position int `json:"position"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	final, err := s.service.MoveList(r.Context(), sessionFrom(r), pathVar(r, "id"), in.Position)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"position": final})
}

func (s *HTTPServer) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Archived bool `json:"archived"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.SetListArchived(r.Context(), sessionFrom(r), pathVar(r, "id"), in.Archived); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"archived": in.Archived})
}

func (s *HTTPServer) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteList(r.Context(), sessionFrom(r), pathVar(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}

// ---------------------------------------------------------------------------
// Cards

func (s *HTTPServer) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.service.ListCards(r.Context(), sessionFrom(r), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cards)
}

func (s *HTTPServer) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ListID string `json:"listId"`
		CardInput
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := s.service.CreateCard(r.Context(), sessionFrom(r), in.ListID, in.CardInput)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

func (s *HTTPServer) handleGetCard(w http.ResponseWriter, r *http.Request) {
	detail, err := s.service.GetCard(r.Context(), sessionFrom(r), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, detail)
}

func (s *HTTPServer) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var in CardInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := s.service.UpdateCard(r.Context(), sessionFrom(r), pathVar(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (s *HTTPServer) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteCard(r.Context(), sessionFrom(r), pathVar(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *HTTPServer) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	var in MoveCardInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := s.service.MoveCard(r.Context(), sessionFrom(r), pathVar(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (s *HTTPServer) handleAssignCard(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID string `json:"userId"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.AssignCard(r.Context(), sessionFrom(r), pathVar(r, "id"), in.UserID); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"assigned": in.UserID})
}

func (s *HTTPServer) handleUnassignCard(w http.ResponseWriter, r *http.Request) {
	if err := s.service.UnassignCard(r.Context(), sessionFrom(r), pathVar(r, "id"), pathVar(r, "userID")); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"unassigned": true})
}

func (s *HTTPServer) handleWatchCard(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Watch bool `json:"watch"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.WatchCard(r.Context(), sessionFrom(r), pathVar(r, "id"), in.Watch); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"watching": in.Watch})
}

func (s *HTTPServer) handleSetCardLabels(w http.ResponseWriter, r *http.Request) {
	var in struct {
		LabelIDs []string `json:"labelIds"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.SetCardLabels(r.Context(), sessionFrom(r), pathVar(r, "id"), in.LabelIDs); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"labelIds": in.LabelIDs})
}

func (s *HTTPServer) handleArchiveCard(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Archived bool `json:"archived"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.SetCardArchived(r.Context(), sessionFrom(r), pathVar(r, "id"), in.Archived); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"archived": in.Archived})
}

func (s *HTTPServer) handleCompleteCard(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Completed bool `json:"completed"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.SetCardCompleted(r.Context(), sessionFrom(r), pathVar(r, "id"), in.Completed); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"completed": in.Completed})
}

// ---------------------------------------------------------------------------
// Comments, checklist, time, attachments

func (s *HTTPServer) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var in CommentInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := s.service.AddComment(r.Context(), sessionFrom(r), pathVar(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

func (s *HTTPServer) handleEditComment(w http.ResponseWriter, r *http.Request) {
	var in CommentInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.EditComment(r.Context(), sessionFrom(r), pathVar(r, "commentID"), in); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *HTTPServer) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteComment(r.Context(), sessionFrom(r), pathVar(r, "commentID")); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *HTTPServer) handleAddChecklistItem(w http.ResponseWriter, r *http.Request) {
	var in ChecklistInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	item, err := s.service.AddChecklistItem(r.Context(), sessionFrom(r), pathVar(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, item)
}

func (s *HTTPServer) handleToggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Done bool `json:"done"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.ToggleChecklistItem(r.Context(), sessionFrom(r), pathVar(r, "itemID"), in.Done); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"done": in.Done})
}

func (s *HTTPServer) handleDeleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteChecklistItem(r.Context(), sessionFrom(r), pathVar(r, "itemID")); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *HTTPServer) handleLogTime(w http.ResponseWriter, r *http.Request) {
	var in TimeEntryInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	e, err := s.service.LogTime(r.Context(), sessionFrom(r), pathVar(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, e)
}

func (s *HTTPServer) handleCreateAttachment(w http.ResponseWriter, r *http.Request) {
	var in AttachmentInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	upload, err := s.service.CreateAttachment(r.Context(), sessionFrom(r), pathVar(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, upload)
}

func (s *HTTPServer) handleAttachmentURL(w http.ResponseWriter, r *http.Request) {
	url, err := s.service.AttachmentDownloadURL(r.Context(), sessionFrom(r), pathVar(r, "attID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"url": url})
}

func (s *HTTPServer) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteAttachment(r.Context(), sessionFrom(r), pathVar(r, "attID")); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}

// ---------------------------------------------------------------------------
// Activities and search

func (s *HTTPServer) handleDashboardActivity(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	records, err := s.service.DashboardActivity(r.Context(), sessionFrom(r), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, records)
}

func (s *HTTPServer) handleActorActivity(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	records, err := s.service.ActorActivity(r.Context(), sessionFrom(r), pathVar(r, "id"), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, records)
}

func (s *HTTPServer) handleCardActivity(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	records, err := s.service.CardActivity(r.Context(), sessionFrom(r), pathVar(r, "id"), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, records)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	resp, err := s.service.Search(r.Context(), sessionFrom(r),
		r.URL.Query().Get("q"), r.URL.Query().Get("type"), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------------
// Admin

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	users, total, err := s.service.ListUsers(r.Context(), sessionFrom(r), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"users": users, "total": total})
}

func (s *HTTPServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.service.GetUserProfile(r.Context(), sessionFrom(r), pathVar(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in UserInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := s.service.CreateUser(r.Context(), sessionFrom(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, u)
}

func (s *HTTPServer) handleChangeOrgRole(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OrgRole string `json:"orgRole"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.ChangeOrgRole(r.Context(), sessionFrom(r), pathVar(r, "id"), in.OrgRole); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"orgRole": in.OrgRole})
}

func (s *HTTPServer) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Deactivated bool `json:"deactivated"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.SetUserDeactivated(r.Context(), sessionFrom(r), pathVar(r, "id"), in.Deactivated); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deactivated": in.Deactivated})
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteUser(r.Context(), sessionFrom(r), pathVar(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}
