package socket

// Broadcaster provides high-level methods for pushing domain events. A nil
// *Broadcaster is valid and drops everything, which keeps services usable
// without a running hub.
type Broadcaster struct {
	hub *Hub
}

func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

func (b *Broadcaster) SendNotification(userID string, notification map[string]interface{}) {
	if b == nil {
		return
	}
	b.hub.SendToUser(userID, MessageNotification, notification)
}

func (b *Broadcaster) toGroup(groupID string, msgType MessageType, payload map[string]interface{}, exclude string) {
	if b == nil {
		return
	}
	b.hub.SendToRoom(GroupRoom(groupID), msgType, payload, exclude)
}

func (b *Broadcaster) BroadcastGroupUpdated(groupID string, group interface{}, actorID string) {
	b.toGroup(groupID, MessageGroupUpdated, map[string]interface{}{
		"groupId":   groupID,
		"group":     group,
		"updatedBy": actorID,
	}, actorID)
}

func (b *Broadcaster) BroadcastGroupDeleted(groupID string, memberIDs []string, actorID string) {
	if b == nil {
		return
	}
	payload := map[string]interface{}{"groupId": groupID, "deletedBy": actorID}
	b.toGroup(groupID, MessageGroupDeleted, payload, actorID)
	// members who have not joined the group room still learn about it
	for _, id := range memberIDs {
		if id != actorID {
			b.hub.SendToUser(id, MessageGroupDeleted, payload)
		}
	}
}

func (b *Broadcaster) BroadcastMemberAdded(groupID, userID, actorID string) {
	b.toGroup(groupID, MessageMemberAdded, map[string]interface{}{
		"groupId": groupID,
		"userId":  userID,
		"addedBy": actorID,
	}, "")
}

func (b *Broadcaster) BroadcastMemberRemoved(groupID, userID, actorID string) {
	if b == nil {
		return
	}
	payload := map[string]interface{}{
		"groupId":   groupID,
		"userId":    userID,
		"removedBy": actorID,
	}
	b.toGroup(groupID, MessageMemberRemoved, payload, "")
	b.hub.SendToUser(userID, MessageMemberRemoved, payload)
}

func (b *Broadcaster) BroadcastInvitationCreated(groupID string, invitation interface{}, actorID string) {
	b.toGroup(groupID, MessageInvitationCreated, map[string]interface{}{
		"groupId":    groupID,
		"invitation": invitation,
	}, actorID)
}

func (b *Broadcaster) BroadcastCatchShared(groupIDs []string, catchID, ownerID string) {
	for _, gid := range groupIDs {
		b.toGroup(gid, MessageCatchShared, map[string]interface{}{
			"groupId": gid,
			"catchId": catchID,
			"userId":  ownerID,
		}, ownerID)
	}
}

func (b *Broadcaster) BroadcastCommentAdded(groupIDs []string, catchID string, comment interface{}, authorID string) {
	for _, gid := range groupIDs {
		b.toGroup(gid, MessageCommentAdded, map[string]interface{}{
			"catchId": catchID,
			"comment": comment,
		}, authorID)
	}
}

func (b *Broadcaster) BroadcastChallengeUpdated(groupID string, challenge interface{}) {
	b.toGroup(groupID, MessageChallengeUpdated, map[string]interface{}{
		"groupId":   groupID,
		"challenge": challenge,
	}, "")
}
