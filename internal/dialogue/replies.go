package dialogue

const (
	greetingText = "Hello! How can I help you today? You can ask me for directions or information about teachers."
	goodbyeText  = "Goodbye! Have a great day."
	thanksText   = "You're welcome!"
	aboutText    = "I am a friendly campus assistant. I can help you navigate the campus and find information about faculty members."
	helpText     = "Here's what I can do:\n" +
		"- Directions: \"navigate from AB1-303 to AB2-112\" or \"how do I get to the canteen?\"\n" +
		"- Teachers: \"who is Sneha?\"\n" +
		"While I'm guiding you, say \"yes\" when you reach each point, or \"cancel\" to stop."
	fallbackText = "I'm not sure how to help with that. You can ask me for directions like " +
		"'navigate from ab1 303 to ab2 112' or 'who is [teacher's name]?'"
	askRouteText = "I can help with navigation. Please tell me where you are starting from and where you want to go, " +
		"for example: 'Navigate from AB1-101 to AB2-205'."
	askTeacherText       = "I can help with teacher details. Who are you looking for?"
	nothingToConfirmText = "There's nothing waiting for a confirmation right now. Ask me for directions or about a teacher."
)
