package service

// SetIDFunc replaces the answer ID generator of a service built by NewChatService.
func SetIDFunc(s ChatService, f func() string) {
	s.(*chatService).newID = f
}
